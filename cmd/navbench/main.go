// Command navbench times adjacency rebuilds and path searches on random
// graphs so the quadratic rebuild and linear open-set scan stay visible.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/milk9111/navgraph/common"
	"github.com/milk9111/navgraph/nav"
)

func main() {
	sizes := flag.String("nodes", "100,400,1600", "comma-separated node counts")
	obstacles := flag.Int("obstacles", 50, "obstacle points per graph")
	radius := flag.Float64("radius", 10, "connectivity radius")
	density := flag.Float64("density", 8, "average nodes per connectivity disc, sets the area size")
	searches := flag.Int("searches", 200, "random searches per graph")
	maxIter := flag.Int("max-iter", 0, "search iteration cap (0 = unbounded)")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	counts, err := parseSizes(*sizes)
	if err != nil {
		log.Fatalf("navbench: %v", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "nodes\tedges\trebuild\tsearch avg\tsearch max\tfound\tsmoothed pts\t")
	for _, n := range counts {
		r := rand.New(rand.NewSource(*seed))
		side := math.Sqrt(float64(n) * math.Pi * *radius * *radius / *density)
		g := nav.NewGraph(nav.Config{ConnectivityRadius: *radius, MaxSearchIterations: *maxIter}, scatter(r, n, side))
		g.SetObstacles(scatter(r, *obstacles, side))

		start := time.Now()
		g.BuildAdjacency()
		rebuild := time.Since(start)

		var total, worst time.Duration
		found, raw, smoothed := 0, 0, 0
		for i := 0; i < *searches; i++ {
			a := common.V3(r.Float64()*side, 0, r.Float64()*side)
			b := common.V3(r.Float64()*side, 0, r.Float64()*side)
			t0 := time.Now()
			path := g.FindPath(a, b)
			d := time.Since(t0)
			total += d
			worst = max(worst, d)
			if !path.Empty() {
				found++
				raw += path.Len()
				smoothed += g.Smooth(path).Len()
			}
		}
		avg := time.Duration(0)
		if *searches > 0 {
			avg = total / time.Duration(*searches)
		}
		ratio := "-"
		if raw > 0 {
			ratio = fmt.Sprintf("%.0f%%", 100*float64(smoothed)/float64(raw))
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%d/%d\t%s\t\n", n, g.EdgeCount(), rebuild, avg, worst, found, *searches, ratio)
	}
	_ = tw.Flush()
}

func scatter(r *rand.Rand, n int, side float64) []common.Vec3 {
	out := make([]common.Vec3, n)
	for i := range out {
		out[i] = common.V3(r.Float64()*side, 0, r.Float64()*side)
	}
	return out
}

func parseSizes(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bad node count %q", part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no node counts")
	}
	return out, nil
}

// Command navsim runs an area headless at a fixed tick rate and reports
// what happened on the event bus.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/milk9111/navgraph/event"
	"github.com/milk9111/navgraph/journal"
	"github.com/milk9111/navgraph/observer"
	"github.com/milk9111/navgraph/prefabs"
	"github.com/milk9111/navgraph/system"
)

func main() {
	area := flag.String("area", "courtyard", "area prefab name")
	ticks := flag.Int("ticks", 600, "ticks to run; 0 runs until interrupted")
	hz := flag.Int("hz", 30, "simulation tick rate")
	realtime := flag.Bool("realtime", false, "pace ticks on a wall-clock ticker instead of running flat out")
	wsAddr := flag.String("ws", "", "serve the observer websocket on this address; implies -realtime")
	journalDir := flag.String("journal", "", "directory for the zstd event journal")
	watch := flag.Bool("watch", false, "reload areas and scripts edited under prefabs/")
	verbose := flag.Bool("v", false, "log every event")
	flag.Parse()

	logger := log.New(os.Stderr, "navsim: ", log.LstdFlags|log.Lmicroseconds)
	if *hz <= 0 {
		logger.Fatalf("-hz must be positive")
	}
	if *wsAddr != "" {
		*realtime = true
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Flat-out runs use simulated time so the rebuild limiter sees the same
	// spacing it would at the nominal rate.
	dt := 1.0 / float64(*hz)
	simNow := time.Now()
	clock := time.Now
	if !*realtime {
		clock = func() time.Time { return simNow }
	}

	world, err := system.LoadWorld(*area, system.WithLogger(logger), system.WithClock(clock))
	if err != nil {
		logger.Fatal(err)
	}
	defer world.Close()

	counts := map[event.Type]int{}
	world.Bus.SubscribeAll(func(e event.Event) {
		counts[e.Type]++
		if *verbose {
			logger.Printf("event %s %+v", e.Type, e.Data)
		}
	})

	if *journalDir != "" {
		jw := journal.NewWriter(*journalDir, "events", journal.WithLogger(logger))
		defer jw.Close()
		jw.Subscribe(world.Bus)
	}

	if *wsAddr != "" {
		obs := observer.NewServer(logger)
		obs.Subscribe(world.Bus)
		srv := &http.Server{Addr: *wsAddr, Handler: obs.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			<-ctx.Done()
			obs.Close()
			ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel2()
			_ = srv.Shutdown(ctx2)
		}()
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("observer: %v", err)
			}
		}()
		logger.Printf("observer listening on %s", observer.URL(*wsAddr))
	}

	var changes <-chan prefabs.Change
	if *watch {
		w, err := prefabs.NewWatcher()
		if err != nil {
			logger.Fatalf("watch: %v", err)
		}
		defer w.Close()
		changes = w.Events
	}

	var tick <-chan time.Time
	if *realtime {
		t := time.NewTicker(time.Duration(float64(time.Second) * dt))
		defer t.Stop()
		tick = t.C
	}

	start := time.Now()
	n := 0
loop:
	for *ticks == 0 || n < *ticks {
		if tick != nil {
			select {
			case <-ctx.Done():
				break loop
			case ch, ok := <-changes:
				if ok {
					handleChange(world, ch, logger)
				} else {
					changes = nil
				}
				continue
			case <-tick:
			}
		} else {
			select {
			case <-ctx.Done():
				break loop
			case ch, ok := <-changes:
				if ok {
					handleChange(world, ch, logger)
				} else {
					changes = nil
				}
			default:
			}
			simNow = simNow.Add(time.Duration(float64(time.Second) * dt))
		}
		world.Step(dt)
		n++
	}

	elapsed := time.Since(start)
	rebuilds, dropped := world.Area.Scheduler().Stats()
	logger.Printf("ran %d ticks (%.1fs simulated) in %s; rebuilds=%d dropped=%d", n, float64(n)*dt, elapsed, rebuilds, dropped)

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		logger.Printf("  %-20s %d", t, counts[event.Type(t)])
	}
	for _, a := range world.Agents() {
		logger.Printf("  agent %-10s at %s behavior=%q state=%s patrol=%d/%d", a.Name, a.Position, a.Behavior, a.State, a.Index, len(a.Patrol))
	}
}

func handleChange(world *system.World, ch prefabs.Change, logger *log.Logger) {
	switch ch.Kind {
	case prefabs.ScriptChanged:
		world.InvalidateScripts()
		logger.Printf("script %s changed", ch.Name)
	case prefabs.AreaChanged:
		if ch.Name != world.Spec.Name {
			return
		}
		spec, err := prefabs.LoadAreaSpec(ch.Name)
		if err == nil {
			err = world.Reload(spec)
		}
		if err != nil {
			logger.Printf("reload %s: %v", ch.Name, err)
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.design/x/clipboard"

	"github.com/milk9111/navgraph/journal"
	"github.com/milk9111/navgraph/observer"
	"github.com/milk9111/navgraph/prefabs"
	"github.com/milk9111/navgraph/system"
)

func main() {
	areaName := flag.String("area", "courtyard", "area prefab name in prefabs/areas (.yaml optional)")
	debug := flag.Bool("debug", false, "draw graph edges and log to stderr")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	watch := flag.Bool("watch", true, "reload areas and scripts edited under prefabs/")
	journalDir := flag.String("journal", "", "directory for the zstd event journal (disabled when empty)")
	wsAddr := flag.String("ws", "", "serve the observer websocket on this address, e.g. :8090")
	flag.Parse()

	logger := log.New(os.Stderr, "navview: ", log.LstdFlags)
	var opts []system.Option
	if *debug {
		opts = append(opts, system.WithLogger(logger))
	}

	world, err := system.LoadWorld(*areaName, opts...)
	if err != nil {
		log.Fatal(err)
	}
	defer world.Close()

	if *journalDir != "" {
		jw := journal.NewWriter(*journalDir, "events", journal.WithLogger(logger))
		defer jw.Close()
		jw.Subscribe(world.Bus)
	}

	if *wsAddr != "" {
		obs := observer.NewServer(logger)
		obs.Subscribe(world.Bus)
		srv := &http.Server{Addr: *wsAddr, Handler: obs.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("observer: %v", err)
			}
		}()
		logger.Printf("observer listening on %s", observer.URL(*wsAddr))
		defer func() {
			obs.Close()
			_ = srv.Shutdown(context.Background())
		}()
	}

	var changes <-chan prefabs.Change
	if *watch {
		if w, err := prefabs.NewWatcher(); err != nil {
			logger.Printf("watch disabled: %v", err)
		} else {
			defer w.Close()
			changes = w.Events
		}
	}

	clipboardOK := clipboard.Init() == nil

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("navview - " + world.Spec.Name)

	game := NewGame(world, *debug, changes, clipboardOK)
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, errQuit) {
		log.Fatal(err)
	}
}

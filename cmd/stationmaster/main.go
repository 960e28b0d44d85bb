package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"nyiyui.ca/hato/stationmaster/config"
	"nyiyui.ca/hato/stationmaster/journal"
	"nyiyui.ca/hato/stationmaster/kujo"
	"nyiyui.ca/hato/stationmaster/panel"
	"nyiyui.ca/hato/stationmaster/runtime"
	"nyiyui.ca/hato/stationmaster/sakuragi"
	"nyiyui.ca/hato/stationmaster/ui"
	"nyiyui.ca/hato/stationmaster/yard"
)

var (
	base         string
	tick         time.Duration
	seed         int64
	journalPath  string
	kujoAddr     string
	sakuragiAddr string
	panelPath    string
	tui          bool
	allocation   string
	selection    string
)

func main() {
	defer zap.S().Sync()
	level := zap.LevelFlag("log-level", zap.InfoLevel, "set log level")
	flag.StringVar(&base, "base", "yard", "base name of the .wtt, .layout, .config and .state files")
	flag.DurationVar(&tick, "tick", runtime.DefaultTick, "time between ticks")
	flag.Int64Var(&seed, "seed", 0, "random seed (0 uses the time)")
	flag.StringVar(&journalPath, "journal", "", "path to the move journal (default <base>.journal.db, - disables)")
	flag.StringVar(&kujoAddr, "kujo", "", "listen address for the snapshot event stream (empty disables)")
	flag.StringVar(&sakuragiAddr, "sakuragi", "", "listen address for the HTML board (empty disables)")
	flag.StringVar(&panelPath, "panel", "", "serial device of the button panel (empty disables)")
	flag.BoolVar(&tui, "tui", false, "show the terminal board")
	flag.StringVar(&allocation, "allocation", "", "siding capacity policy, count or weight (overrides the config)")
	flag.StringVar(&selection, "selection", "", "outgoing selection policy, count or weight (overrides the config)")
	flag.Parse()
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(*level)
	if tui {
		// keep the terminal for the board
		cfg.OutputPaths = []string{base + ".log"}
		cfg.ErrorOutputPaths = []string{base + ".log"}
	}
	dev, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(dev)

	err = main2()
	if err != nil {
		zap.S().Errorf("stationmaster: %s", err)
		zap.S().Sync()
		os.Exit(3)
	}
}

func main2() error {
	opts := config.Options{
		Allocation: allocation,
		Selection:  selection,
	}
	if seed != 0 {
		opts.Rand = rand.New(rand.NewSource(seed))
	}
	y, err := config.Load(base, opts)
	if err != nil {
		return err
	}
	zap.S().Infow("loaded yard",
		"base", base,
		"sidings", y.SidingCount(),
		"rakes", y.RakeCount(),
		"wagons", y.WagonCount(),
		"capacity", y.CapacityPolicy().Name(),
		"selection", y.SelectionPolicy().Name())

	var j *journal.Journal
	if journalPath == "" {
		journalPath = base + ".journal.db"
	}
	if journalPath != "-" {
		j, err = journal.Open(journalPath)
		if err != nil {
			return err
		}
		defer j.Close()
	}

	i := runtime.NewInstance(runtime.Conf{
		Yard:      y,
		StatePath: config.StatePath(base),
		Journal:   j,
		Tick:      tick,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup

	if kujoAddr != "" {
		k := kujo.NewServer(i.SnapshotMux)
		go func() {
			// ends the event streams so the server can shut down
			<-ctx.Done()
			k.Close()
		}()
		serve(ctx, &wg, "kujo", kujoAddr, k)
	}
	if sakuragiAddr != "" {
		serve(ctx, &wg, "sakuragi", sakuragiAddr, sakuragi.New(sakuragi.Conf{
			Snapshots: i.SnapshotMux,
			Journal:   j,
		}))
	}
	if panelPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := panel.Run(ctx, panelPath, i.Send)
			if err != nil {
				zap.S().Errorf("panel: %s", err)
			}
		}()
	}
	if tui {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ui.Run(ctx, i.SnapshotMux, i.Send)
			if err != nil {
				zap.S().Errorf("ui: %s", err)
				i.Send(yard.EventShutdown)
			}
		}()
	}

	err = i.Run(ctx)
	cancel()
	wg.Wait()
	return err
}

// serve runs an HTTP server on addr until ctx is done.
func serve(ctx context.Context, wg *sync.WaitGroup, name, addr string, h http.Handler) {
	s := &http.Server{
		Addr:    addr,
		Handler: h,
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		zap.S().Infof("%s: listening on %s", name, addr)
		err := s.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Errorf("%s: %s", name, err)
		}
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.Shutdown(shutdownCtx)
	}()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/pprof"
	"os/signal"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AlexsanderHamir/gwizpool/internal/config"
	"github.com/AlexsanderHamir/gwizpool/internal/logger"
	"github.com/AlexsanderHamir/gwizpool/manager"
	"github.com/AlexsanderHamir/gwizpool/metrics"
	"github.com/AlexsanderHamir/gwizpool/persistence"
	"github.com/AlexsanderHamir/gwizpool/pool"
)

type simulateOptions struct {
	workers    int
	iterations int
	hold       time.Duration
	delay      time.Duration
	level      string
	statePath  string
	listen     string
}

func newSimulateCmd(root *rootOptions) *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a synthetic acquire/release workload",
		Long: `Run worker goroutines that acquire bullets, rockets and sparks from the
pooling manager, hold them briefly and release them. Pool configurations
are loaded from and saved to the state file.

Example:
  poolctl simulate --workers 8 --iterations 1000 --level Arena --listen localhost:9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if cmd.Flags().Changed("state") {
				cfg.Persistence.StatePath = opts.statePath
			}
			if opts.listen != "" {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Listen = opts.listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runSimulation(ctx, cmd.OutOrStdout(), cfg, log, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 5, "Number of concurrent workers")
	cmd.Flags().IntVarP(&opts.iterations, "iterations", "n", 1000, "Acquire/release cycles per worker")
	cmd.Flags().DurationVar(&opts.hold, "hold", time.Millisecond, "How long a worker keeps an object")
	cmd.Flags().DurationVar(&opts.delay, "delay", 0, "Pause between two cycles")
	cmd.Flags().StringVar(&opts.level, "level", "", "Level whose pool configurations are applied before the run")
	cmd.Flags().StringVar(&opts.statePath, "state", persistence.DefaultStatePath, "Pool state file, empty to disable persistence")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "Serve /metrics and /debug/pprof on this address")

	return cmd
}

func runSimulation(ctx context.Context, out io.Writer, cfg config.Config, log *zap.Logger, opts *simulateOptions) error {
	mc, err := cfg.ManagerConfig()
	if err != nil {
		return err
	}

	events := metrics.NewEventCounter(cfg.Metrics.Namespace)

	m, err := manager.New(newTypes(), mc,
		manager.WithLogger(logger.Named(log, "manager")),
		manager.WithLifecycle(manager.DefaultLifecycle{}),
		manager.WithEventSink(events),
	)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	for t, name := range cfg.Pools {
		preset, err := config.Preset(name)
		if err != nil {
			return err
		}
		if err := m.ConfigurePool(pool.TypeID(t), preset); err != nil {
			return fmt.Errorf("pool %s: %w", t, err)
		}
	}

	session := persistence.NewSession(m,
		persistence.WithLogger(logger.Named(log, "persistence")),
		persistence.WithStatePath(cfg.Persistence.StatePath),
	)
	if err := session.Init(); err != nil {
		return err
	}

	if opts.level != "" {
		if err := session.HandleLevelTransition("", opts.level); err != nil {
			return err
		}
	} else if _, err := m.PreWarmAll(); err != nil {
		log.Warn("prewarm failed", zap.Error(err))
	}

	if cfg.Metrics.Enabled {
		srv, err := serveMetrics(cfg.Metrics, m, events, log)
		if err != nil {
			return err
		}
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	if err := m.Start(ctx); err != nil {
		return err
	}

	log.Info("workload starting", zap.Int("workers", opts.workers), zap.Int("iterations", opts.iterations))
	started := time.Now()
	failures := runWorkload(ctx, m, opts)
	log.Info("workload finished", zap.Duration("elapsed", time.Since(started)), zap.Int("failures", failures))

	m.Stop()
	printStatistics(out, m.GlobalStatistics())

	if opts.level != "" {
		if _, err := session.CleanupPoolsForLevel(opts.level); err != nil {
			return err
		}
	}
	return session.Shutdown()
}

var workloadTypes = []pool.TypeID{bulletType, bulletType, rocketType, sparkType}

// runWorkload returns the number of cycles that failed to acquire or
// release.
func runWorkload(ctx context.Context, m *manager.Manager, opts *simulateOptions) int {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
	)

	fail := func() {
		mu.Lock()
		failures++
		mu.Unlock()
	}

	for i := range opts.workers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			for j := range opts.iterations {
				if ctx.Err() != nil {
					return
				}

				obj, err := m.AcquireObject(workloadTypes[rand.IntN(len(workloadTypes))])
				if err != nil {
					fail()
					continue
				}
				use(obj, id, j)

				if opts.hold > 0 {
					time.Sleep(opts.hold)
				}
				if err := m.ReleaseObject(obj); err != nil {
					fail()
				}
				if opts.delay > 0 {
					time.Sleep(opts.delay)
				}
			}
		}(i)
	}

	wg.Wait()
	return failures
}

func use(obj pool.Object, worker, iteration int) {
	switch o := obj.(type) {
	case *rocket:
		o.Damage = 100
		o.Fuel = 1
		o.Location = pool.Vector{X: float64(worker), Y: float64(iteration)}
	case *bullet:
		o.Damage = 10
		o.Velocity = pool.Vector{X: 1}
	case *spark:
		o.Lifetime = iteration
	}
}

func serveMetrics(cfg config.MetricsConfig, m *manager.Manager, events *metrics.EventCounter, log *zap.Logger) (*http.Server, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewCollector(cfg.Namespace, m)); err != nil {
		return nil, err
	}
	if err := reg.Register(events); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{Addr: cfg.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("serving metrics", zap.String("addr", cfg.Listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return srv, nil
}

func printStatistics(out io.Writer, stats []pool.PoolStatistics) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tCATEGORY\tAVAILABLE\tIN USE\tCREATED\tHITS\tMISSES\tHIT RATE\tPEAK")
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%.2f\t%d\n",
			s.Type, s.Category, s.CurrentPoolSize, s.ObjectsInUse, s.TotalCreated,
			s.PoolHits, s.PoolMisses, s.HitRate, s.PeakConcurrentUsage)
	}
	_ = w.Flush()
}

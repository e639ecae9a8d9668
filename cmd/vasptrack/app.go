package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/BearBump/vasptrack/config"
	"github.com/BearBump/vasptrack/internal/batchio"
	"github.com/BearBump/vasptrack/internal/broker/kafka"
	"github.com/BearBump/vasptrack/internal/cache/rediscache"
	"github.com/BearBump/vasptrack/internal/integrations/vasp"
	"github.com/BearBump/vasptrack/internal/integrations/vasp/fake"
	"github.com/BearBump/vasptrack/internal/metrics"
	"github.com/BearBump/vasptrack/internal/services/lookup"
	"github.com/BearBump/vasptrack/internal/services/normalizer"
	"github.com/BearBump/vasptrack/internal/sinks"
	"github.com/BearBump/vasptrack/internal/storage/pgtracking"
	"github.com/BearBump/vasptrack/internal/storage/snapshots"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Фабрики нужны, чтобы в тестах подменять сеть и внешние хранилища.
type appFactories struct {
	newFetcher  func(cfg *config.Config) vasp.Fetcher
	newCache    func(ctx context.Context, cfg *config.Config) (sinks.BytesCache, func(), error)
	newProducer func(cfg *config.Config) (sinks.Producer, func(), error)
	newStore    func(ctx context.Context, cfg *config.Config) (sinks.RecordStore, func(), error)
}

func defaultAppFactories() appFactories {
	return appFactories{
		newFetcher: func(cfg *config.Config) vasp.Fetcher {
			if cfg.Tracker.APIMode == "fake" {
				return fake.New()
			}
			return vasp.New(cfg.Tracker.APIBase, cfg.Tracker.RequestTimeout())
		},
		newCache: func(ctx context.Context, cfg *config.Config) (sinks.BytesCache, func(), error) {
			c := rediscache.New(fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))
			if err := c.Ping(ctx); err != nil {
				_ = c.Close()
				return nil, nil, err
			}
			return c, func() { _ = c.Close() }, nil
		},
		newProducer: func(cfg *config.Config) (sinks.Producer, func(), error) {
			p := kafka.NewProducer([]string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)})
			return p, func() { _ = p.Close() }, nil
		},
		newStore: func(ctx context.Context, cfg *config.Config) (sinks.RecordStore, func(), error) {
			st, err := pgtracking.New(ctx, pgtracking.ConnString(
				cfg.Database.Host, cfg.Database.Port, cfg.Database.Username,
				cfg.Database.Password, cfg.Database.DBName, cfg.Database.SSLMode))
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
	}
}

type streams struct {
	in  io.Reader
	out io.Writer
}

// RunBatch reads codes, looks them up and writes the results file.
func RunBatch(ctx context.Context, cfg *config.Config, opts *options, f appFactories, st streams, log *slog.Logger) error {
	p := newPrompter(st.in, st.out)

	input := opts.input
	if input == "" {
		var err error
		if input, err = p.inputFile(); err != nil {
			return err
		}
	}

	codes, err := batchio.ReadCodes(input, cfg.Input.MinCodeLength)
	switch {
	case errors.Is(err, batchio.ErrEmptyInput):
		log.Warn("input file is empty", "path", input)
	case err != nil:
		log.Error("failed to read codes", "path", input, "error", err.Error())
		return &ExitError{Code: 1, Message: err.Error()}
	}
	if codes.Skipped > 0 {
		log.Warn("skipped invalid or empty codes", "count", codes.Skipped)
	}
	log.Info("loaded codes", "count", len(codes.Valid), "path", input)
	if len(codes.Valid) == 0 {
		log.Warn("no valid codes found, exiting")
		return nil
	}

	reg := prometheus.NewRegistry()
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return err
	}

	sinkList, closeSinks := buildSinks(ctx, cfg, f, log)
	defer closeSinks()

	store := snapshots.New(cfg.Tracker.SnapshotDir)
	orch := lookup.New(f.newFetcher(cfg), normalizer.New(store), log).
		WithSettings(lookup.Settings{
			Timeout:       cfg.Tracker.RequestTimeout(),
			Delay:         cfg.Tracker.RequestDelay(),
			MinCodeLength: cfg.Tracker.MinCodeLength,
			Concurrency:   cfg.Tracker.Concurrency,
		}).
		WithSinks(sinkList...).
		WithMetrics(m)

	if cfg.Tracker.StatusAddr != "" {
		srvCtx, stopSrv := context.WithCancel(ctx)
		defer stopSrv()
		go func() {
			err := runStatusServer(srvCtx, statusOpts{
				httpAddr:    cfg.Tracker.StatusAddr,
				swaggerPath: cfg.Tracker.SwaggerPath,
				orch:        orch,
				registry:    reg,
				cfg:         cfg,
				current:     currentCache(sinkList),
			})
			if err != nil && srvCtx.Err() == nil {
				log.Error("status server stopped", "error", err.Error())
			}
		}()
	}

	log.Info("starting lookups", "codes", len(codes.Valid), "snapshot_dir", store.Dir())
	records, runErr := orch.Run(ctx, codes.Valid)
	if errors.Is(runErr, lookup.ErrNoValidCodes) {
		log.Warn("no valid codes found, exiting")
		return nil
	}

	output := opts.output
	if output == "" {
		output = p.outputFile(input)
	}
	saveErr := batchio.WriteResults(output, records)
	switch {
	case errors.Is(saveErr, batchio.ErrNoResults):
		log.Warn("no results to save")
	case saveErr != nil:
		log.Error("failed to save results", "path", output, "error", saveErr.Error())
	default:
		log.Info("results saved", "path", output, "records", len(records))
	}

	stats := orch.Stats()
	fmt.Fprintf(st.out, "Done: %d of %d codes tracked, %d skipped.\n",
		stats.TotalSucceeded, stats.TotalCodes, stats.TotalSkipped)

	if runErr != nil {
		return &ExitError{Code: 1, Message: runErr.Error()}
	}
	if saveErr != nil && !errors.Is(saveErr, batchio.ErrNoResults) {
		return &ExitError{Code: 1, Message: saveErr.Error()}
	}
	return nil
}

func currentCache(list []lookup.Sink) *sinks.Cache {
	for _, s := range list {
		if c, ok := s.(*sinks.Cache); ok {
			return c
		}
	}
	return nil
}

// buildSinks connects the configured backends. An unreachable backend is
// logged and left out of the batch.
func buildSinks(ctx context.Context, cfg *config.Config, f appFactories, log *slog.Logger) ([]lookup.Sink, func()) {
	var (
		out     []lookup.Sink
		closers []func()
	)
	keep := func(name string, closeFn func(), err error) bool {
		if err != nil {
			log.Warn("result sink disabled", "sink", name, "error", err.Error())
			return false
		}
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
		return true
	}

	if cfg.Redis.Host != "" {
		c, closeFn, err := f.newCache(ctx, cfg)
		if keep("redis", closeFn, err) {
			out = append(out, sinks.NewCache(c, cfg.Redis.CurrentStatusTTL()))
		}
	}
	if cfg.Kafka.Host != "" {
		p, closeFn, err := f.newProducer(cfg)
		if keep("kafka", closeFn, err) {
			out = append(out, sinks.NewTopic(p, cfg.Kafka.TrackingUpdatedTopicName))
		}
	}
	if cfg.Database.Host != "" {
		s, closeFn, err := f.newStore(ctx, cfg)
		if keep("postgres", closeFn, err) {
			out = append(out, sinks.NewStore(s))
		}
	}

	return out, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

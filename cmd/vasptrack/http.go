package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/vasptrack/config"
	"github.com/BearBump/vasptrack/internal/services/lookup"
	"github.com/BearBump/vasptrack/internal/sinks"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type statusOpts struct {
	httpAddr    string
	swaggerPath string
	onListen    func(httpAddr string)

	orch     *lookup.Orchestrator
	registry *prometheus.Registry
	cfg      *config.Config
	current  *sinks.Cache
}

// runStatusServer serves batch progress while a run is in flight.
// An empty swaggerPath disables /swagger.json and /docs.
func runStatusServer(ctx context.Context, opts statusOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}
	if opts.swaggerPath != "" {
		if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
			return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
		}
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: statusRouter(opts)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	err = srv.Serve(lis)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func statusRouter(opts statusOpts) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.orch == nil {
			_, _ = w.Write([]byte(`{"error":"orchestrator not wired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(opts.orch.Stats())
	})

	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.orch == nil || opts.cfg == nil {
			_, _ = w.Write([]byte(`{"error":"config not wired"}`))
			return
		}
		// Без секретов: только параметры прогона.
		s := opts.orch.Settings()
		out := map[string]any{
			"apiBase":            opts.cfg.Tracker.APIBase,
			"apiMode":            opts.cfg.Tracker.APIMode,
			"timeoutSeconds":     s.Timeout.Seconds(),
			"delayMillis":        s.Delay.Milliseconds(),
			"minCodeLength":      s.MinCodeLength,
			"concurrency":        s.Concurrency,
			"snapshotDir":        opts.cfg.Tracker.SnapshotDir,
			"inputMinCodeLength": opts.cfg.Input.MinCodeLength,
			"sinks": map[string]bool{
				"redis":    opts.cfg.Redis.Host != "",
				"kafka":    opts.cfg.Kafka.Host != "",
				"postgres": opts.cfg.Database.Host != "",
			},
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	// Последнее состояние из redis; без redis маршрут не регистрируется.
	if opts.current != nil {
		r.Get("/trackings/{number}/current", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			rec, err := opts.current.Current(r.Context(), chi.URLParam(r, "number"))
			if err != nil {
				w.WriteHeader(http.StatusBadGateway)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}
			if rec == nil {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":"not found"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(rec)
		})
	}

	if opts.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.registry, promhttp.HandlerOpts{}))
	}

	if opts.swaggerPath != "" {
		r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			http.ServeFile(w, r, opts.swaggerPath)
		})

		swaggerURL := "/swagger.json"
		if fi, err := os.Stat(opts.swaggerPath); err == nil {
			swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
		}
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
	}

	return r
}

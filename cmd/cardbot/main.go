package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/cardbot/config"
	"github.com/alejandrodnm/cardbot/internal/application/scanner"
)

func main() {
	os.Exit(cli(os.Args[1:]))
}

// cli contiene el arranque completo y devuelve el exit code, de modo que
// los defers (cierre de la caché, cancel de señales) corren antes de salir.
func cli(args []string) int {
	fs := flag.NewFlagSet("cardbot", flag.ContinueOnError)
	configPath := fs.String("config", "config/config.yaml", "path to config file")
	terms := fs.String("terms", "", "comma-separated search terms (overrides config)")
	mode := fs.String("mode", "", "analysis mode: marketplace|catalog|cross-source (overrides config)")
	workers := fs.Int("workers", 0, "terms analyzed concurrently (overrides config)")
	csvPath := fs.String("csv", "", "export opportunities to this CSV file (overrides config)")
	noCache := fs.Bool("no-cache", false, "disable the catalog cache")
	hold := fs.Bool("hold", false, "keep serving metrics after the batch until interrupted")
	verbose := fs.Bool("verbose", false, "set log level to debug")
	logFormat := fs.String("format", "", "log format: text|json (overrides config)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		return 1
	}

	if *terms != "" {
		cfg.Search.Terms = splitTerms(*terms)
	}
	if *mode != "" {
		cfg.Analysis.Mode = *mode
	}
	if *workers != 0 {
		cfg.Analysis.Workers = *workers
	}
	if *csvPath != "" {
		cfg.Export.CSVPath = *csvPath
	}
	if *noCache {
		cfg.Cache.Enabled = false
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		return 1
	}

	slog.Info("cardbot starting",
		"config", *configPath,
		"mode", cfg.Analysis.Mode,
		"terms", len(cfg.Search.Terms),
		"workers", cfg.Analysis.Workers,
		"threshold", cfg.Analysis.DiscountThreshold,
		"tier_policy", cfg.Analysis.TierPolicy,
		"cache", cfg.Cache.Enabled,
	)

	deps, err := buildDeps(cfg)
	if err != nil {
		slog.Error("failed to build dependencies", "err", err)
		return 1
	}
	defer deps.Close()

	strat, err := selectStrategy(cfg, deps)
	if err != nil {
		slog.Error("failed to select strategy", "err", err)
		return 1
	}

	metrics := scanner.NewMetrics()
	s := scanner.New(
		scanner.Config{Workers: cfg.Analysis.Workers},
		strat,
		deps.notifier,
		deps.exporter,
		metrics,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gatherers := prometheus.Gatherers{metrics.Registry}
	if deps.scraper != nil {
		gatherers = append(gatherers, deps.scraper.Metrics.Registry)
	}

	if err := run(ctx, cfg, s, gatherers, *hold); err != nil {
		slog.Error("cardbot exited with error", "err", err)
		return 1
	}
	slog.Info("cardbot stopped cleanly")
	return 0
}

// run ejecuta el lote y, si hay dirección de métricas, sirve /metrics
// en paralelo. Con hold el servidor sigue vivo hasta la señal.
func run(ctx context.Context, cfg *config.Config, s *scanner.Scanner, gatherers prometheus.Gatherers, hold bool) error {
	g, gctx := errgroup.WithContext(ctx)
	batchDone := make(chan struct{})

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			slog.Info("metrics server listening", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-gctx.Done():
			case <-batchDone:
				if hold {
					<-gctx.Done()
				}
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer close(batchDone)
		result, err := s.Run(gctx, cfg.Search.Terms)
		if err != nil {
			return err
		}
		slog.Info("batch complete",
			"run_id", result.RunID,
			"deals", result.Summary.TotalDeals,
			"failed_terms", len(result.Failed),
			"potential_profit", result.Summary.TotalPotentialProfit.StringFixed(2),
			"duration", result.Duration,
		)
		return nil
	})

	return g.Wait()
}

func splitTerms(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

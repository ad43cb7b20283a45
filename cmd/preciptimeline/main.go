package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/AndersM123/MagicMirror/internal/adapter/http"
	kafkaadapter "github.com/AndersM123/MagicMirror/internal/adapter/kafka"
	"github.com/AndersM123/MagicMirror/internal/adapter/metno"
	"github.com/AndersM123/MagicMirror/internal/config"
	"github.com/AndersM123/MagicMirror/internal/observability"
	"github.com/AndersM123/MagicMirror/internal/scheduler"
	"github.com/AndersM123/MagicMirror/internal/transit"
	"github.com/AndersM123/MagicMirror/internal/widget"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if cfg.IntervalClamped {
		logger.Warn("update interval raised to the provider minimum",
			"interval", cfg.UpdateInterval, "minimum", config.MinUpdateInterval)
	}

	clock := clockwork.NewRealClock()
	fetcher := metno.NewClient(cfg.MetBaseURL, cfg.MetTimeout, logger)

	// Notifiers fan out reconciled outcomes (feature-flagged via KAFKA_ENABLED).
	var notifiers []widget.Notifier
	var announcer *kafkaadapter.Announcer
	if cfg.KafkaEnabled {
		announcer = kafkaadapter.NewAnnouncer(cfg, logger)
		notifiers = append(notifiers, announcer)
		logger.Info("kafka announcer enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	manager := widget.NewManager(fetcher, widget.Settings{
		Hours:          cfg.Hours,
		DebugSample:    cfg.DebugSample,
		APIVersion:     cfg.ForecastAPIVersion,
		UserAgent:      cfg.UserAgent,
		UpdateInterval: cfg.UpdateInterval,
		Display: widget.DisplayHints{
			LabelEvery:      cfg.LabelEvery,
			MaxBarHeight:    cfg.MaxBarHeight,
			MinNonZeroBar:   cfg.MinNonZeroBar,
			ShowProbability: cfg.ShowProbability,
		},
	}, logger, metrics, clock, notifiers...)

	for _, loc := range cfg.Locations {
		manager.Register(widget.Location{Lat: loc.Lat, Lon: loc.Lon, Altitude: loc.Altitude})
	}

	// Transit board (feature-flagged via TRANSIT_STOP_ID).
	var transitSvc *transit.Service
	var departureSource httpadapter.DepartureSource
	if cfg.TransitEnabled() {
		client := transit.NewClient(cfg.TransitBaseURL, cfg.MetTimeout, logger)
		transitSvc = transit.NewService(client, cfg.TransitStopID, cfg.TransitLines, cfg.TransitMax, clock, logger)
		departureSource = transitSvc
		logger.Info("transit board enabled", "stop_id", cfg.TransitStopID, "lines", cfg.TransitLines)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, manager, manager, departureSource, logger)

	sched := scheduler.New(logger)
	// The refresh job walks every instance sequentially, so its budget scales
	// with the number of locations.
	refreshBudget := cfg.MetTimeout * time.Duration(len(cfg.Locations)+1)
	if err := sched.Add("forecast-refresh", cfg.UpdateInterval, refreshBudget, manager.RunAll); err != nil {
		logger.Error("failed to schedule forecast refresh", "error", err)
		os.Exit(1)
	}
	if transitSvc != nil {
		if err := sched.Add("transit-refresh", cfg.TransitInterval, cfg.MetTimeout, func(ctx context.Context) {
			refreshTransit(ctx, transitSvc, metrics, logger)
		}); err != nil {
			logger.Error("failed to schedule transit refresh", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Initial fetches right away; the scheduler takes over afterwards.
	go func() {
		manager.RunAll(ctx)
		if transitSvc != nil {
			refreshTransit(ctx, transitSvc, metrics, logger)
		}
	}()
	sched.Start()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if announcer != nil {
		if err := announcer.Close(); err != nil {
			logger.Error("kafka announcer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func refreshTransit(ctx context.Context, svc *transit.Service, metrics *observability.Metrics, logger *slog.Logger) {
	if err := svc.Refresh(ctx); err != nil {
		metrics.TransitFetches.WithLabelValues("error").Inc()
		logger.Warn("transit refresh failed", "error", err)
		return
	}
	metrics.TransitFetches.WithLabelValues("success").Inc()
}

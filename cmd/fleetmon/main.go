package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fleetmon/fleetmon/internal/config"
	"github.com/fleetmon/fleetmon/internal/event"
	"github.com/fleetmon/fleetmon/internal/notify"
	"github.com/fleetmon/fleetmon/internal/poll"
	"github.com/fleetmon/fleetmon/internal/registry"
	"github.com/fleetmon/fleetmon/internal/store"
	"github.com/fleetmon/fleetmon/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration (before logger, so log level/format can be configured).
	v, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("fleetmon starting", zap.String("version", version.Short()))
	if f := v.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("source", f))
	} else {
		logger.Warn("no configuration file found, using defaults")
	}

	if err := run(v, logger); err != nil {
		logger.Fatal("fleetmon failed", zap.Error(err))
	}
	logger.Info("fleetmon stopped")
}

func run(v *viper.Viper, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database and migrations.
	db, err := store.New(v.GetString("database.dsn"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	for _, m := range []struct {
		component  string
		migrations []store.Migration
	}{
		{"registry", registry.Migrations()},
		{"poll", poll.Migrations()},
		{"notify", notify.Migrations()},
	} {
		if err := db.Migrate(ctx, m.component, m.migrations); err != nil {
			return fmt.Errorf("migrate %s: %w", m.component, err)
		}
	}

	devices := registry.NewDeviceStore(db.DB())
	samples := poll.NewSampleStore(db.DB())
	prefs := notify.NewPrefStore(db.DB())

	if err := registry.SeedFromConfig(ctx, v, devices, logger); err != nil {
		return fmt.Errorf("seed devices: %w", err)
	}

	// Polling pipeline.
	pollCfg := poll.DefaultConfig()
	if err := v.UnmarshalKey("poll", &pollCfg); err != nil {
		return fmt.Errorf("parse poll config: %w", err)
	}

	bus := event.NewBus(logger.Named("event"))
	prober := poll.NewICMPProber(pollCfg.PingTimeout, logger.Named("prober"))
	snmp := poll.NewSNMPClient(pollCfg.SNMPPort, pollCfg.SNMPTimeout, pollCfg.SNMPRetries)
	fetcher := poll.NewFetcher(snmp, pollCfg.OIDs(), logger.Named("fetcher"))
	poller := poll.NewPoller(devices, samples, prober, fetcher, bus, pollCfg, logger.Named("poller"))
	retention := poll.NewRetention(samples, pollCfg.RetentionPeriod, pollCfg.RetentionInterval, logger.Named("retention"))

	// Notification dispatch.
	loc, err := time.LoadLocation(v.GetString("notify.timezone"))
	if err != nil {
		return fmt.Errorf("load notify timezone: %w", err)
	}
	mailer := notify.NewSMTPMailer(
		v.GetString("smtp.host"),
		v.GetInt("smtp.port"),
		v.GetString("smtp.from"),
		v.GetString("smtp.username"),
		v.GetString("smtp.password"),
	)
	dispatcher := notify.NewDispatcher(prefs, mailer, loc, nil,
		v.GetString("notify.subject_prefix"), logger.Named("dispatcher"))
	unsubscribe := dispatcher.Subscribe(bus)
	defer unsubscribe()

	// Prometheus metrics endpoint.
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsSrv := &http.Server{
		Addr:              v.GetString("metrics.addr"),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics listener started", zap.String("addr", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", zap.Error(err))
		}
	}()

	poller.Start(ctx)
	retention.Start(ctx)

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	poller.Stop()
	retention.Stop()
	return nil
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"opsconsole/internal/audit"
	"opsconsole/internal/audit/store/kafka"
	"opsconsole/internal/audit/store/memory"
	"opsconsole/internal/audit/store/postgres"
	"opsconsole/internal/dispatch"
	jwttoken "opsconsole/internal/jwt_token"
	"opsconsole/internal/platform/config"
	"opsconsole/internal/platform/httpserver"
	"opsconsole/internal/platform/logger"
	"opsconsole/internal/platform/metrics"
	httptransport "opsconsole/internal/transport/http"
)

const (
	shutdownTimeout     = 10 * time.Second
	mirrorBuffer        = 256
	auditTopicPartition = 3
	auditTopicRF        = 1
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "opsconsole:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(log)

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	budget := catalog.RequestBudget(cfg.UpstreamTimeout)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	wired, err := buildProviders(providerDeps{
		catalog: catalog,
		timeout: cfg.UpstreamTimeout,
		getenv:  os.Getenv,
		metrics: m,
		tracer:  otel.Tracer("opsconsole/upstream"),
		logger:  log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, mirror, cleanup, err := buildAuditStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	recorder := audit.NewRecorder(store, audit.WithLogger(log), audit.WithMetrics(m))
	svc, err := dispatch.New(wired.registry, recorder, dispatch.WithLogger(log), dispatch.WithMetrics(m))
	if err != nil {
		return err
	}

	deps := httptransport.RouterDeps{
		Logger:         log,
		Metrics:        m,
		Validator:      jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)),
		Audit:          httptransport.NewAuditHandler(recorder, log),
		MetricsRoute:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		RequestTimeout: budget,
	}
	var authTester httptransport.AuthTester
	if wired.directory != nil {
		authTester = wired.directory
	}
	deps.Accounts = httptransport.NewAccountsHandler(svc, wired.registry, authTester, log)
	if wired.tracker != nil {
		groups, err := dispatch.NewGroups(wired.tracker, recorder, log)
		if err != nil {
			return err
		}
		deps.Tracker = httptransport.NewTrackerHandler(groups, log)
	}

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(deps), budget)

	g, gctx := errgroup.WithContext(ctx)
	if mirror != nil {
		g.Go(func() error { return mirror.Run(gctx) })
	}
	g.Go(func() error {
		log.Info("starting opsconsole", "addr", cfg.Addr, "providers", len(wired.registry.All()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildAuditStore opens the relational audit log and, when brokers are
// configured, mirrors it onto Kafka. Without DATABASE_URL the log lives in
// memory, which only development allows.
func buildAuditStore(ctx context.Context, cfg config.Server, log *slog.Logger) (audit.Store, *audit.Mirror, func(), error) {
	var primary audit.Store
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set; audit log kept in memory")
		primary = memory.New()
	} else {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, cleanup, fmt.Errorf("open audit database: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		pg := postgres.New(db)
		if err := pg.Ping(ctx); err != nil {
			cleanup()
			return nil, nil, func() {}, fmt.Errorf("audit database: %w", err)
		}
		primary = pg
	}

	if len(cfg.AuditBrokers) == 0 {
		return primary, nil, cleanup, nil
	}
	producer, err := kafka.New(cfg.AuditBrokers, cfg.AuditTopic)
	if err != nil {
		cleanup()
		return nil, nil, func() {}, err
	}
	closers = append(closers, producer.Close)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := producer.Ping(pingCtx); err != nil {
		log.Warn("audit brokers unreachable, mirror will buffer and drop", "brokers", cfg.AuditBrokers, "error", err)
	}
	if err := producer.EnsureTopic(ctx, auditTopicPartition, auditTopicRF); err != nil {
		log.Warn("could not ensure audit topic", "topic", cfg.AuditTopic, "error", err)
	}
	mirror := audit.NewMirror(primary, producer, mirrorBuffer, log)
	log.Info("audit mirror enabled", "topic", cfg.AuditTopic, "brokers", cfg.AuditBrokers)
	return mirror, mirror, cleanup, nil
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"staffing/internal/domain/audit"
	"staffing/internal/domain/auth"
	"staffing/internal/domain/billing"
	"staffing/internal/domain/company"
	"staffing/internal/domain/invoice"
	"staffing/internal/domain/reports"
	"staffing/internal/domain/timesheet"
	"staffing/internal/platform/config"
	cryptoutil "staffing/internal/platform/crypto"
	"staffing/internal/platform/db"
	"staffing/internal/platform/jobs"
	"staffing/internal/platform/metrics"
	"staffing/internal/transport/http/api"
	audithandler "staffing/internal/transport/http/handlers/audit"
	billinghandler "staffing/internal/transport/http/handlers/billing"
	companyhandler "staffing/internal/transport/http/handlers/company"
	invoicehandler "staffing/internal/transport/http/handlers/invoices"
	reportshandler "staffing/internal/transport/http/handlers/reports"
	timesheethandler "staffing/internal/transport/http/handlers/timesheets"
	"staffing/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config  config.Config
	DB      *db.Pool
	Router  http.Handler
	Jobs    *jobs.Service
	Metrics *metrics.Collector
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// RouteRegistrar is implemented by every API handler.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// New connects to the database, applies migrations and seed data, and
// wires every service behind the API router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	cipher, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	if !cipher.Configured() {
		slog.Warn("DATA_ENCRYPTION_KEY not set; bank details and invoice documents are stored in clear")
	}

	collector := metrics.New()
	perms := auth.NewStore(pool)
	auditor := audit.New(pool)

	billingService := billing.NewService(billing.NewStore(pool))
	timesheetService := timesheet.NewService(timesheet.NewStore(pool), billingService, timesheet.Options{
		EnforceSubcontractLeave: cfg.EnforceSubcontractLeave,
		MonthlyMode:             cfg.MonthlyAggregation,
	})
	companyService := company.NewService(company.NewStore(pool), cipher)
	invoiceService := invoice.NewService(invoice.NewStore(pool), timesheetService, companyService, cipher, invoice.Options{
		GSTRate:    cfg.GSTRate,
		Prefix:     cfg.InvoicePrefix,
		DueDays:    cfg.InvoiceDueDays,
		Basis:      cfg.InvoiceBasisCurrency,
		StorageDir: cfg.InvoiceStorageDir,
	})
	reportsService := reports.NewService(reports.NewStore(pool))
	jobService := jobs.New(jobs.NewStore(pool), invoiceService, cfg.OverdueSweepInterval)

	router := NewRouter(cfg, collector, pool.Ping,
		billinghandler.NewHandler(billingService, auditor, perms),
		timesheethandler.NewHandler(timesheetService, auditor, perms, collector),
		invoicehandler.NewHandler(invoiceService, middleware.NewIdempotencyStore(pool), jobService, auditor, perms, collector),
		companyhandler.NewHandler(companyService, auditor, perms),
		reportshandler.NewHandler(reportsService, perms),
		audithandler.NewHandler(auditor, perms),
	)

	return &App{Config: cfg, DB: pool, Router: router, Jobs: jobService, Metrics: collector}, nil
}

// NewRouter builds the middleware chain, the operational endpoints and the
// versioned API.
func NewRouter(cfg config.Config, collector *metrics.Collector, ping func(context.Context) error, handlers ...RouteRegistrar) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
		for _, h := range handlers {
			h.RegisterRoutes(r)
		}
	})

	return router
}

// Run starts the API server and the background jobs and blocks until
// SIGINT or SIGTERM, then drains both.
func Run() error {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "err", err)
	}
	stop()
	app.Jobs.Wait()
	return nil
}

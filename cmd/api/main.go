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

	"timesheet-platform/internal/audit"
	"timesheet-platform/internal/auth"
	"timesheet-platform/internal/config"
	"timesheet-platform/internal/identity"
	"timesheet-platform/internal/reporting"
	"timesheet-platform/internal/session"
	"timesheet-platform/internal/sites"
	"timesheet-platform/internal/timesheet"
	"timesheet-platform/internal/webhook"
	"timesheet-platform/pkg/logger"
	"timesheet-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Call session store. Redis for multi-instance deployments; the
	// in-memory store is fine for a single process.
	var store session.Store
	switch cfg.Session.Backend {
	case "redis":
		store = session.NewRedisStore(rdb, cfg.Session.TTL)
	default:
		mem := session.NewMemoryStore(cfg.Session.TTL)
		defer mem.Close()
		store = mem
	}

	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	identitySvc := identity.NewService(identity.NewPostgresRepo(db), cfg.Vapi.TestDefaultPhone, cfg.App.DefaultTimezone)
	recordRepo := timesheet.NewPostgresRepo(db)
	timesheetSvc := timesheet.NewService(store, recordRepo, auditSvc, cfg.Session.MaxEntriesPerCall)
	reportSvc := reporting.NewService(recordRepo)

	// Site matcher: semantic when an API key is configured, otherwise the
	// resolver's built-in similarity fallback carries everything.
	var matcher sites.Matcher
	if cfg.OpenAI.APIKey != "" {
		matcher = &sites.OpenAIMatcher{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		}
	}
	resolver := sites.NewResolver(matcher)

	gateway := &webhook.Gateway{
		Identity:   identitySvc,
		Sessions:   store,
		Sites:      resolver,
		Timesheets: timesheetSvc,
		Audit:      auditSvc,
		Secret:     cfg.Vapi.WebhookSecret,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, deps{
		authMW:     auth.RequireAccessToken(authManager),
		auth:       authManager,
		gateway:    gateway,
		timesheets: timesheetSvc,
		reports:    reportSvc,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

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

	"notifyr-gateway/internal/audit"
	"notifyr-gateway/internal/auth"
	"notifyr-gateway/internal/config"
	"notifyr-gateway/internal/credstore"
	"notifyr-gateway/internal/forward"
	"notifyr-gateway/internal/gateway"
	"notifyr-gateway/internal/otp"
	"notifyr-gateway/pkg/logger"
	"notifyr-gateway/pkg/utils"

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

	log := logger.New(cfg.Mode)
	slog.SetDefault(log)

	if cfg.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	svc, err := gateway.NewServiceContext(cfg)
	if err != nil {
		log.Error("service context init failed", "err", err)
		os.Exit(1)
	}

	// Audit trail: Postgres when configured, in-memory otherwise.
	var repo audit.Repository = audit.NewMemoryRepo()
	if cfg.AuditEnabled() {
		db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = audit.NewPostgresRepo(db)
	} else {
		log.Info("audit trail running in memory, DB_HOST not set")
	}

	// Contact-scoped verification needs the passcode store; without it the
	// gateway still serves the plain digit-match path.
	var verifier otp.ContactVerifier
	if cfg.CredStoreEnabled() {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.Cred.RedisAddr})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		verifier = credstore.New(rdb, []byte(cfg.Cred.Key), cfg.Cred.TTL)
	}

	tokens := auth.NewTokenSource(cfg.Backend.AuthKey, cfg.Backend.RefreshKey, svc.BaseURL)
	forwarder := forward.New(cfg.ForwardTimeout, tokens, audit.NewService(repo))

	h := gateway.Handler{
		Svc:       svc,
		Forwarder: forwarder,
		Verifier:  verifier,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, cfg)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("gateway listening", "addr", srv.Addr, "mode", cfg.Mode)
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
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"notifyr-gateway/internal/docstore"
	"notifyr-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mode := envOr("MODE", "test")
	addr := ":" + envOr("SETTINGDB_PORT", "3000")
	dbPath := envOr("SETTINGDB_DB", "db.json")
	keyPath := envOr("SETTINGDB_KEY_FILE", "api-key.txt")

	log := logger.New(mode)
	slog.SetDefault(log)

	if mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := docstore.Load(dbPath)
	if err != nil {
		log.Error("store load failed", "path", dbPath, "err", err)
		os.Exit(1)
	}

	// The key file is watched; rotating it never needs a restart.
	keys, err := docstore.WatchKey(rootCtx, keyPath, log)
	if err != nil {
		log.Error("key watch failed", "path", keyPath, "err", err)
		os.Exit(1)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(docstore.RequireAPIKey(keys))
	docstore.Handler{Store: store}.Register(r)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("settingdb listening", "addr", srv.Addr, "db", dbPath)
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

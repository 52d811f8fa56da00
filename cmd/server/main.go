// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/dnghia/tienlen/internal/auth"
	"github.com/dnghia/tienlen/internal/config"
	"github.com/dnghia/tienlen/internal/handlers"
	"github.com/dnghia/tienlen/internal/history"
	"github.com/dnghia/tienlen/internal/journal"
	"github.com/dnghia/tienlen/internal/middleware"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if err := auth.Init(); err != nil {
		logger.Fatalf("init auth keys: %v", err)
	}

	// Optional room event journal.
	var jrnl *journal.Publisher
	if cfg.RedisAddr != "" {
		jrnl, err = journal.Connect(cfg.RedisAddr, cfg.RedisDB, cfg.JournalQueue, logger)
		if err != nil {
			logger.Fatalf("connect journal: %v", err)
		}
		defer jrnl.Close()
		logger.Infof("room event journal enabled (%s)", cfg.RedisAddr)
	}

	// Optional match history archive.
	var hist *history.Store
	if cfg.DatabaseURL != "" {
		hist, err = history.Connect(context.Background(), cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatalf("connect history store: %v", err)
		}
		defer hist.Close()
		logger.Info("match history archive enabled")
	}

	srv := handlers.NewServer(logger, jrnl, hist)

	mux := http.NewServeMux()
	mux.Handle("/ws", srv.WSHandler())
	mux.Handle("/", middleware.LogMiddleware(logger)(http.FileServer(http.Dir(cfg.StaticDir))))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

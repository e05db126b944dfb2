package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LikhithMar14/code-paglu/config"
	"github.com/LikhithMar14/code-paglu/internal/exec"
	"github.com/LikhithMar14/code-paglu/internal/service"
	"github.com/LikhithMar14/code-paglu/internal/token"
	httpx "github.com/LikhithMar14/code-paglu/internal/transport/http"
	"github.com/LikhithMar14/code-paglu/internal/transport/ws"
	"github.com/LikhithMar14/code-paglu/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting collab-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- services ---
	rosterSvc := service.NewRosterService(cfg.Rooms.MaxParticipants)
	signer := token.NewSigner(cfg.Auth.APIKey, cfg.Auth.APISecret, cfg.TokenTTL())
	execSvc := exec.NewClient(cfg.Exec.BaseURL, cfg.ExecTimeout())

	// --- WS Hub & relay ---
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, rosterSvc, signer)

	// --- redis bridge: нужен только при нескольких инстансах relay ---
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()

		bridge := ws.NewBridge(rdb, hub, uuid.NewString())
		go func() {
			if err := bridge.Run(ctx); err != nil {
				slog.Error("bridge stopped", "err", err)
			}
		}()
		slog.Info("redis bridge enabled", "addr", cfg.Redis.Addr)
	}

	// --- HTTP ---
	handler := httpx.NewHandler(signer, rosterSvc, wsServer, execSvc)
	router := httpx.NewRouter(handler, signer, rosterSvc, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal")
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartconnect/internal/auth"
	"smartconnect/internal/config"
	"smartconnect/internal/httpserver"
	"smartconnect/internal/logger"
	"smartconnect/internal/notify"
	"smartconnect/internal/services"
	"smartconnect/internal/store"
)

func main() {
	cfg, err := config.Load()
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()
	if err != nil {
		lg.Fatalw("invalid configuration", "error", err)
	}

	db, err := store.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		lg.Fatalw("db connect failed", "driver", cfg.DBDriver, "error", err)
	}
	if err := seedAdmin(db, cfg, lg); err != nil {
		lg.Fatalw("seed admin failed", "error", err)
	}

	var pub notify.Publisher = notify.Nop{}
	if cfg.MQTTBroker != "" {
		mq, err := notify.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix, lg)
		if err != nil {
			lg.Fatalw("mqtt connect failed", "broker", cfg.MQTTBroker, "error", err)
		}
		defer mq.Close()
		pub = mq
		lg.Infow("mqtt notifications enabled", "broker", cfg.MQTTBroker, "prefix", cfg.MQTTTopicPrefix)
	}

	router := httpserver.NewRouter(httpserver.Deps{
		DB:       db,
		Services: services.New(db, lg, pub),
		Tokens:   auth.NewTokens(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL),
		Policy:   auth.NewPolicy(db, lg),
		Logger:   lg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Infow("listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatalw("http server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Errorw("shutdown", "error", err)
	}
	lg.Infow("stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qs-lzh/campus-cinema/config"
	"github.com/qs-lzh/campus-cinema/internal/app"
	"github.com/qs-lzh/campus-cinema/internal/cache"
	"github.com/qs-lzh/campus-cinema/internal/database"
	"github.com/qs-lzh/campus-cinema/internal/handler"
	"github.com/qs-lzh/campus-cinema/internal/logger"
	"github.com/qs-lzh/campus-cinema/internal/mq"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.GinMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	gin.SetMode(cfg.GinMode)

	db, err := database.OpenPostgres(cfg.DatabaseDSN, database.DefaultPool, log)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(cfg.CacheURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisCache.Ping(pingCtx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	mqConn, err := mq.NewMQConn(cfg.MQURL)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}

	application := app.New(cfg, db, redisCache, mq.NewProducer(mqConn), log)
	defer func() {
		if err := application.Close(); err != nil {
			log.Warn("close app", zap.Error(err))
		}
	}()
	if err := application.Init(mqConn); err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.NewRouter(application),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

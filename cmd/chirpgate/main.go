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

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chirpgate/chirpgate/account"
	"github.com/chirpgate/chirpgate/authstate"
	"github.com/chirpgate/chirpgate/config"
	"github.com/chirpgate/chirpgate/server"
	"github.com/chirpgate/chirpgate/session"
	"github.com/chirpgate/chirpgate/status"
	"github.com/chirpgate/chirpgate/twitter"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()
	if err := client.Ping(ctx, nil); err != nil {
		return err
	}
	db := client.Database(cfg.MongoDatabase)

	accounts := account.NewMongoStore(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		return err
	}
	statuses := status.NewMongoStore(db)

	var pending authstate.Registry
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		pending = authstate.NewRedis(rdb, cfg.LoginAttemptTTL)
		logger.Info("pending-login registry backed by redis", "addr", cfg.RedisAddr)
	} else {
		pending = authstate.NewMemory(cfg.LoginAttemptTTL)
		logger.Info("pending-login registry backed by process memory")
	}

	provider := twitter.NewClient(cfg.TwitterClientID, cfg.TwitterClientSecret, cfg.TwitterCallbackURL, cfg.ProviderTimeout)
	codec := session.NewCodec([]byte(cfg.SessionSecret))

	srv := server.New(cfg, logger, accounts, statuses, pending, provider, codec)
	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port, "env", cfg.Environment)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// README: Entry point; loads config, wires the store and chat router, starts HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"statusbot/internal/chat"
	"statusbot/internal/config"
	httptransport "statusbot/internal/http"
	"statusbot/internal/infra"
	"statusbot/internal/modules/order"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := infra.NewLogger(cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		logger.Fatal("storage init failed", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	orderSvc := order.NewService(order.NewStore(backend))

	provider, err := config.NewProvider(cfg.BotFile, logger)
	if err != nil {
		logger.Fatal("bot file load failed", zap.String("path", cfg.BotFile), zap.Error(err))
	}

	settings := func() chat.Settings {
		bf := provider.Current()
		return chat.Settings{
			GroupID:      bf.GroupID,
			Admins:       adminSet(bf.Admins),
			Vocab:        bf.VocabTable(),
			Policy:       bf.ParsePolicy(),
			HistoryLimit: bf.HistoryLimit,
		}
	}

	// The real transport delivers admin alerts out of band; until one is
	// attached the alert lands in the log where the on-call can see it.
	notifier := chat.NotifierFunc(func(ctx context.Context, text string) error {
		logger.Warn("admin alert", zap.String("text", text))
		return nil
	})

	router := chat.NewRouter(orderSvc, settings, notifier, logger)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Orders:     orderSvc,
		Chat:       router,
		AdminToken: cfg.HTTP.AdminToken,
		Log:        logger,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.String("storage", cfg.Storage.Driver))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return provider.Watch(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Fatal("shutdown", zap.Error(err))
	}
	logger.Info("stopped")
}

func newBackend(ctx context.Context, cfg config.Config) (order.Backend, error) {
	switch cfg.Storage.Driver {
	case "file":
		return order.NewFileBackend(cfg.Storage.Path), nil
	case "redis":
		rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			return nil, err
		}
		return order.NewRedisBackend(rdb, cfg.Redis.Key), nil
	case "postgres":
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return nil, err
		}
		backend := order.NewPgBackend(pool)
		if err := backend.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func adminSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

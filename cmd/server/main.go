// cmd/server/main.go
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

	"github.com/jason-s-yu/yazy/internal/cache"
	"github.com/jason-s-yu/yazy/internal/config"
	"github.com/jason-s-yu/yazy/internal/game"
	"github.com/jason-s-yu/yazy/internal/handlers"
	"github.com/jason-s-yu/yazy/internal/relay"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.NewCommand(run).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}

	coord := relay.New(relay.Options{
		JoinTimeout: cfg.JoinTimeout,
		Rules:       game.Rules{Strict: cfg.StrictRules},
		Logger:      logger,
	})

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: handlers.NewRouter(logger, coord, handlers.WSOptions{
			OriginPatterns:  cfg.Origins,
			MaxMessageBytes: cfg.MaxMessageBytes,
			OutboxSize:      cfg.OutboxSize,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"addr":   cfg.Addr(),
			"strict": cfg.StrictRules,
		}).Info("yazy relay listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(gctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Warn("live stats disabled")
		} else {
			defer rdb.Close()
			instance, _ := os.Hostname()
			instance = fmt.Sprintf("%s:%d", instance, cfg.Port)
			pub := cache.NewStatsPublisher(rdb, coord, cfg.RedisKey, instance, cfg.StatsInterval, logger)
			g.Go(func() error { return pub.Run(gctx) })
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		coord.Shutdown()
		drain(shutdownCtx, coord, logger)
		return err
	})

	return g.Wait()
}

// drain waits for websocket handlers to finish their close handshakes.
func drain(ctx context.Context, coord *relay.Coordinator, logger logrus.FieldLogger) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		open := coord.Stats().Connections
		if open == 0 {
			return
		}
		select {
		case <-ctx.Done():
			logger.Warnf("shutdown timeout with %d connections still open", open)
			return
		case <-ticker.C:
		}
	}
}

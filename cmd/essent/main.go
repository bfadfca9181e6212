package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
	"github.com/raterudder/essent/pkg/essent"
	"github.com/raterudder/essent/pkg/log"
	"github.com/raterudder/essent/pkg/server"
)

func main() {
	c := essent.Configured()
	srv := server.Configured(c)

	lflag.Configure()
	configureLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}

// configureLogger maps the llog level set by lflag onto slog.
func configureLogger() {
	level, err := log.LevelFromLLog(llog.GetLevel())
	if err != nil {
		panic(err)
	}

	log.SetDefaultLogLevel(level)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))
	slog.Debug("logger configured", slog.String("level", level.String()))
}

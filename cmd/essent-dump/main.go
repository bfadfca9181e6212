package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
	"github.com/raterudder/essent/pkg/essent"
	"github.com/raterudder/essent/pkg/log"
)

// essent-dump logs in and writes the account's EANs, or the readings of one
// EAN, to stdout as JSON. Logs go to stderr.
func main() {
	c := essent.Configured()
	ean := lflag.String("ean", "", "EAN to read; when empty the account's EANs are listed")
	onlyLast := lflag.Bool("only-last", false, "Only return the last meter reading")
	start := lflag.String("start", "", "Start of the period, e.g. 2019-01-01T00:00:00+01:00")
	end := lflag.String("end", "", "End of the period; defaults to the server's current time")
	lflag.Configure()

	level, err := log.LevelFromLLog(llog.GetLevel())
	if err != nil {
		panic(err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = log.With(ctx, slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(ctx, c, *ean, essent.ReadingOptions{
		OnlyLastMeterReading: *onlyLast,
		StartDate:            *start,
		EndDate:              *end,
	}); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "essent-dump failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, c *essent.Client, ean string, opts essent.ReadingOptions) error {
	if err := c.Login(ctx); err != nil {
		return err
	}

	var out any
	if ean == "" {
		eans, err := c.EANs(ctx)
		if err != nil {
			return err
		}
		out = eans
	} else {
		info, err := c.ReadMeter(ctx, ean, opts)
		if err != nil {
			return err
		}
		out = info
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

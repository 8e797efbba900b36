package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"scholarfeed/internal/app"
	"scholarfeed/internal/fetch"
	"scholarfeed/internal/logger"
	"scholarfeed/internal/scholar"
)

type args struct {
	Addr string `arg:"positional" default:"127.0.0.1:3005" help:"listen address (host:port)"`
}

func main() {
	// Optional .env for local runs; absence is fine.
	_ = godotenv.Load()

	var a args
	arg.MustParse(&a)

	log, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	cfg := app.DefaultConfig()

	hc := fetch.NewClient(fetch.ClientOptions{
		Timeout:   cfg.SearchTimeout,
		UserAgent: cfg.UserAgent,
	})
	searcher := scholar.NewClient(hc, "", log.Named("scholar"))

	srv := app.NewServer(cfg, searcher, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, a.Addr); err != nil {
		log.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spelekhaty-ai/ummc-formulary/internal/config"
	"github.com/spelekhaty-ai/ummc-formulary/internal/server"
	"github.com/spelekhaty-ai/ummc-formulary/internal/storage"
	"github.com/spelekhaty-ai/ummc-formulary/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		svc := watcher.NewService(db, cfg)
		if err := svc.Run(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "watcher stopped: %v\n", err)
		}
	}()

	must(server.New(db, cfg).Run())
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

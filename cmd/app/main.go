package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "mens-health: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	app, err := initializeApp()
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}
	return app.Run(ctx)
}

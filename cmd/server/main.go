// Package main implements the entry point for the helpdesk API server:
// ticket and recurring-template management plus the background scheduler
// that materializes due templates into concrete tickets.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
)

func main() {
	app, err := newApplication()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

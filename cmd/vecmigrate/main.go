// Command vecmigrate applies versioned schema migrations to a vector store.
//
// Usage:
//
//	vecmigrate --config vecmigrate.yaml apply
//	vecmigrate apply --to 1.2.0
//	vecmigrate pending
//	vecmigrate history --json
//	vecmigrate rollback 1.2.0
//	vecmigrate compile-filter '{"tenant":"acme","year":{"$gte":2020}}'
//
// Configuration is read from --config (or VECSCHEMA_CONFIG). Every setting can
// be overridden with its VECSCHEMA_* environment variable. With events.backend
// set to rabbit or kafka, applied and rolled back migrations are announced on
// that broker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

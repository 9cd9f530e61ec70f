// Command polypost runs the local server behind the PolyPost browser extension.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/polypost/polypost-server/internal/di"
	"github.com/polypost/polypost-server/internal/logger"
)

func main() {
	injector := di.NewContainer()
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "polypost: %v\n", err)
		_ = injector.Shutdown()
		os.Exit(1)
	}
	log := do.MustInvoke[*logger.Logger](injector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info("Shutting down")

	// Reverse dependency order: HTTP first, storage last.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown incomplete", "error", err)
	}
	log.Info("Goodbye")
}

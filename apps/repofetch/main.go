// Command repofetch fetches a file or directory of a GitHub repository into a
// local directory.
//
//	repofetch [options] repo_owner repo path local_path
package main

import (
	"context"
	"os"
	"time"

	"github.com/tilsley/repofetch/apps/repofetch/internal/platform/telemetry"
	"github.com/tilsley/repofetch/pkg/logging"
)

func main() {
	log := logging.NewWriter(os.Stderr, logging.FormatText)
	ctx := context.Background()

	tel, err := telemetry.New(ctx, "repofetch", os.Getenv("OTEL_ENABLED") == "true")
	if err != nil {
		log.Error("telemetry init failed", "error", err)
		os.Exit(exitFailure)
	}

	code := execute(ctx, newRootCommand(os.Stderr, log), os.Args[1:])

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", "error", err)
	}
	cancel()

	os.Exit(code)
}

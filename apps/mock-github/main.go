// Command mock-github serves a fake of the GitHub git data API (trees and
// blobs) for local runs of repofetch:
//
//	GITHUB_API_URL=http://localhost:9090 repofetch -r acme widgets docs ./out
package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tilsley/repofetch/pkg/githubmock"
	"github.com/tilsley/repofetch/pkg/logging"
)

func main() {
	log := logging.New()
	s := githubmock.NewStore()

	if path := os.Getenv("SEED_FILE"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			log.Error("open seed file failed", "path", path, "error", err)
			os.Exit(1)
		}
		err = s.LoadSeed(f)
		_ = f.Close() //nolint:errcheck // read-only file
		if err != nil {
			log.Error("load seed file failed", "path", path, "error", err)
			os.Exit(1)
		}
	} else if err := s.LoadDemo(); err != nil {
		log.Error("load demo seed failed", "error", err)
		os.Exit(1)
	}
	log.Info("seeded repos", "repos", s.Repos())

	r := githubmock.NewRouter(s, log, gin.Logger(), otelgin.Middleware("mock-github"))

	port := envOr("PORT", "9090")
	log.Info("mock-github starting", "port", port)
	if err := r.Run(":" + port); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

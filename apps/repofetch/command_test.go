package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/repofetch/pkg/githubmock"
	"github.com/tilsley/repofetch/pkg/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	url      string
	requests *atomic.Int64
	stderr   *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := githubmock.NewStore()
	store.SetFile("acme", "widgets", "master", "a", "A\n")
	store.SetFile("acme", "widgets", "master", "b/c", "C\n")
	store.SetFile("acme", "widgets", "master", "b/d/e", "E\n")
	store.SetFile("acme", "widgets", "develop", "a", "develop A\n")

	var requests atomic.Int64
	count := func(c *gin.Context) {
		requests.Add(1)
		c.Next()
	}
	srv := httptest.NewServer(githubmock.NewRouter(store, logging.Discard(), count))
	t.Cleanup(srv.Close)

	return &harness{url: srv.URL, requests: &requests, stderr: &bytes.Buffer{}}
}

func (h *harness) run(args ...string) int {
	cmd := newRootCommand(h.stderr, logging.Discard())
	return execute(context.Background(), cmd, append([]string{"--api-url", h.url}, args...))
}

func TestCLI_WrongArgCount(t *testing.T) {
	h := newHarness(t)

	code := h.run("acme", "widgets", "a")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, h.stderr.String(), "Missing required repo_owner, repo, path and local_path.")
	assert.Contains(t, h.stderr.String(), "Usage:")
	assert.Zero(t, h.requests.Load())
}

func TestCLI_LocalPathMissing(t *testing.T) {
	h := newHarness(t)
	missing := filepath.Join(t.TempDir(), "nope")

	code := h.run("acme", "widgets", "a", missing)
	assert.Equal(t, exitNoLocalPath, code)
	assert.Contains(t, h.stderr.String(), "doesn't exist")
	assert.Zero(t, h.requests.Load())
}

func TestCLI_CollisionExitsBeforeNetwork(t *testing.T) {
	h := newHarness(t)
	out := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(out, "b", "c"), 0o755))

	code := h.run("-r", "acme", "widgets", "b/c", out)
	assert.Equal(t, exitCollision, code)
	assert.Contains(t, h.stderr.String(), "already exists. Aborting.")
	assert.Zero(t, h.requests.Load(), "no network call on collision")
}

func TestCLI_FetchBlob(t *testing.T) {
	h := newHarness(t)
	out := t.TempDir()

	code := h.run("acme", "widgets", "b/c", out)
	require.Equal(t, exitOK, code, h.stderr.String())

	data, err := os.ReadFile(filepath.Join(out, "c"))
	require.NoError(t, err)
	assert.Equal(t, "C\n", string(data))
	assert.Equal(t, int64(2), h.requests.Load(), "one tree listing and one blob")
}

func TestCLI_FetchBranch(t *testing.T) {
	h := newHarness(t)
	out := t.TempDir()

	code := h.run("--branch", "develop", "acme", "widgets", "a", out)
	require.Equal(t, exitOK, code, h.stderr.String())

	data, err := os.ReadFile(filepath.Join(out, "a"))
	require.NoError(t, err)
	assert.Equal(t, "develop A\n", string(data))
}

func TestCLI_FetchDirectoryListing(t *testing.T) {
	h := newHarness(t)
	out := t.TempDir()

	code := h.run("acme", "widgets", "b", out)
	require.Equal(t, exitOK, code, h.stderr.String())

	info, err := os.Stat(filepath.Join(out, "b"))
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	data, err := os.ReadFile(filepath.Join(out, "b"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"path": "c"`)
	assert.Contains(t, string(data), `"path": "d"`)
}

func TestCLI_FetchDirectoryRecursive(t *testing.T) {
	h := newHarness(t)
	out := t.TempDir()

	code := h.run("-r", "acme", "widgets", "b", out)
	require.Equal(t, exitOK, code, h.stderr.String())

	data, err := os.ReadFile(filepath.Join(out, "b", "d", "e"))
	require.NoError(t, err)
	assert.Equal(t, "E\n", string(data))

	data, err = os.ReadFile(filepath.Join(out, "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, "C\n", string(data))
}

func TestCLI_RemotePathMissingPrintsFailed(t *testing.T) {
	h := newHarness(t)
	out := t.TempDir()

	code := h.run("acme", "widgets", "zzz", out)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, h.stderr.String(), `Failed: path "zzz" does not exist in repo`)
}

func TestCLI_NetworkFailureIsNotReportedAsFailed(t *testing.T) {
	h := newHarness(t)
	out := t.TempDir()

	code := h.run("--branch", "gone", "acme", "widgets", "a", out)
	assert.Equal(t, exitFailure, code)
	assert.NotContains(t, h.stderr.String(), "Failed:")
}

func TestCLI_UnknownFlag(t *testing.T) {
	h := newHarness(t)

	code := h.run("--bogus", "acme", "widgets", "a", t.TempDir())
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, h.stderr.String(), "unknown flag")
}

func TestEnvOr(t *testing.T) {
	t.Setenv("REPOFETCH_TEST_ENV", "")
	assert.Equal(t, "fallback", envOr("REPOFETCH_TEST_ENV", "fallback"))
	t.Setenv("REPOFETCH_TEST_ENV", "set")
	assert.Equal(t, "set", envOr("REPOFETCH_TEST_ENV", "fallback"))
}

// Package fetcher materializes a subtree of a hosted repository on the local
// filesystem. The recursive tree listing is downloaded once; every lookup after
// that is a linear scan over the in-memory entries.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/tilsley/repofetch/apps/repofetch/internal/gitrepo"
)

const instrumentationName = "github.com/tilsley/repofetch/fetcher"

// DefaultBranch is queried when Config.Branch is empty.
const DefaultBranch = "master"

// Config is fixed at construction.
type Config struct {
	// Recursive materializes directory matches as real directories instead of
	// writing their listing to a single JSON file.
	Recursive bool
	// Branch is the ref whose tree is listed.
	Branch string
	// MaxDepth caps recursion below the requested path. Zero means unlimited.
	MaxDepth int
}

// Stats summarises what a Materialize call wrote.
type Stats struct {
	Files    int
	Dirs     int
	Listings int
	Bytes    int64
}

// Fetcher is bound to one repository and one branch for the lifetime of a run.
type Fetcher struct {
	src   gitrepo.Source
	owner string
	repo  string
	cfg   Config
	log   *slog.Logger

	tree  *gitrepo.Tree
	stats Stats

	tracer       trace.Tracer
	filesWritten metric.Int64Counter
}

// New creates a Fetcher. LoadTree must succeed before any lookup returns a match.
func New(src gitrepo.Source, owner, repo string, cfg Config, log *slog.Logger) *Fetcher {
	if cfg.Branch == "" {
		cfg.Branch = DefaultBranch
	}

	counter, err := otel.Meter(instrumentationName).Int64Counter(
		"repofetch.files.written",
		metric.WithDescription("Files written to the local filesystem"),
	)
	if err != nil {
		counter = noop.Int64Counter{}
	}

	return &Fetcher{
		src:          src,
		owner:        owner,
		repo:         repo,
		cfg:          cfg,
		log:          log,
		tracer:       otel.Tracer(instrumentationName),
		filesWritten: counter,
	}
}

// Config returns the configuration the Fetcher was built with.
func (f *Fetcher) Config() Config { return f.cfg }

// Stats returns the running totals of everything written so far.
func (f *Fetcher) Stats() Stats { return f.stats }

// LoadTree downloads the recursive tree listing for the configured branch.
// Errors from the source are returned unchanged.
func (f *Fetcher) LoadTree(ctx context.Context) (err error) {
	ctx, span := f.tracer.Start(ctx, "fetcher.LoadTree", trace.WithAttributes(
		attribute.String("repofetch.repo", f.owner+"/"+f.repo),
		attribute.String("repofetch.branch", f.cfg.Branch),
	))
	defer func() { endSpan(span, err) }()

	tree, err := f.src.GetTree(ctx, f.owner, f.repo, f.cfg.Branch)
	if err != nil {
		return err
	}
	if tree.Truncated {
		f.log.Warn("tree listing truncated by the API, some paths may be missing",
			"repo", f.owner+"/"+f.repo, "branch", f.cfg.Branch, "entries", len(tree.Entries))
	}

	f.tree = tree
	f.log.Debug("tree loaded", "repo", f.owner+"/"+f.repo, "branch", f.cfg.Branch, "entries", len(tree.Entries))
	return nil
}

// Exists reports whether some entry's path equals p exactly.
func (f *Fetcher) Exists(p string) bool {
	_, ok := f.Lookup(p)
	return ok
}

// Lookup returns the first entry whose path equals p exactly.
func (f *Fetcher) Lookup(p string) (gitrepo.TreeEntry, bool) {
	if f.tree == nil {
		return gitrepo.TreeEntry{}, false
	}
	for _, e := range f.tree.Entries {
		if e.Path == p {
			return e, true
		}
	}
	return gitrepo.TreeEntry{}, false
}

// Children returns the entries whose parent directory is exactly dir, in tree order.
func (f *Fetcher) Children(dir string) []gitrepo.TreeEntry {
	if f.tree == nil {
		return nil
	}
	var out []gitrepo.TreeEntry
	for _, e := range f.tree.Entries {
		if parentDir(e.Path) == dir {
			out = append(out, e)
		}
	}
	return out
}

// Materialize writes remotePath under localDir, named by its remote basename.
// A blob becomes a file with its decoded content. A tree becomes either a JSON
// listing file or, when Recursive is set, a directory holding its children.
// Nothing written before a failure is rolled back.
func (f *Fetcher) Materialize(ctx context.Context, remotePath, localDir string) error {
	return f.materialize(ctx, remotePath, localDir, 0)
}

func (f *Fetcher) materialize(ctx context.Context, remotePath, localDir string, depth int) (err error) {
	ctx, span := f.tracer.Start(ctx, "fetcher.Materialize", trace.WithAttributes(
		attribute.String("repofetch.path", remotePath),
		attribute.Int("repofetch.depth", depth),
	))
	defer func() { endSpan(span, err) }()

	if f.cfg.MaxDepth > 0 && depth > f.cfg.MaxDepth {
		return &gitrepo.DepthExceededError{Path: remotePath, Limit: f.cfg.MaxDepth}
	}

	entry, ok := f.Lookup(remotePath)
	if !ok {
		return &gitrepo.PathNotFoundError{Path: remotePath}
	}

	name := filepath.Join(localDir, path.Base(entry.Path))

	// Type is checked before Recursive: a blob is always written as a file.
	switch entry.Type {
	case gitrepo.EntryBlob:
		return f.writeBlob(ctx, entry, name)
	case gitrepo.EntryTree:
		if !f.cfg.Recursive {
			return f.writeListing(ctx, entry, name)
		}
		return f.writeDir(ctx, entry, name, depth)
	default:
		f.log.Debug("skipping unsupported entry", "path", entry.Path, "type", entry.Type)
		return nil
	}
}

func (f *Fetcher) writeBlob(ctx context.Context, entry gitrepo.TreeEntry, name string) error {
	blob, err := f.src.GetBlob(ctx, entry.URL)
	if err != nil {
		return err
	}
	data, err := blob.Decode()
	if err != nil {
		return err
	}
	if err := writeExclusive(name, data); err != nil {
		return err
	}

	f.stats.Files++
	f.stats.Bytes += int64(len(data))
	f.filesWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("repofetch.kind", "blob")))
	f.log.Debug("wrote file", "path", entry.Path, "dest", name, "bytes", len(data))
	return nil
}

func (f *Fetcher) writeListing(ctx context.Context, entry gitrepo.TreeEntry, name string) error {
	raw, err := f.src.GetRaw(ctx, entry.URL)
	if err != nil {
		return err
	}

	// Re-indent only; keys, order and values are left exactly as served.
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return &gitrepo.ParseError{URL: entry.URL, Err: err}
	}
	if err := writeExclusive(name, buf.Bytes()); err != nil {
		return err
	}

	f.stats.Listings++
	f.stats.Bytes += int64(buf.Len())
	f.filesWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("repofetch.kind", "listing")))
	f.log.Debug("wrote listing", "path", entry.Path, "dest", name)
	return nil
}

func (f *Fetcher) writeDir(ctx context.Context, entry gitrepo.TreeEntry, name string, depth int) error {
	if err := os.MkdirAll(name, 0o755); err != nil {
		return &gitrepo.IOError{Op: "mkdir", Path: name, Err: err}
	}
	f.stats.Dirs++
	f.log.Debug("created directory", "path", entry.Path, "dest", name)

	for _, child := range f.Children(entry.Path) {
		if err := f.materialize(ctx, child.Path, name, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func writeExclusive(name string, data []byte) error {
	file, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &gitrepo.IOError{Op: "create", Path: name, Err: err}
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close() //nolint:errcheck // the write error is the one worth reporting
		return &gitrepo.IOError{Op: "write", Path: name, Err: err}
	}
	if err := file.Close(); err != nil {
		return &gitrepo.IOError{Op: "close", Path: name, Err: err}
	}
	return nil
}

// parentDir returns every segment of p but the last, or "" for a top-level entry.
func parentDir(p string) string {
	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

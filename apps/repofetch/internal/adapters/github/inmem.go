package github

import (
	"context"
	"crypto/sha1" //nolint:gosec // git object ids are sha1
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tilsley/repofetch/apps/repofetch/internal/gitrepo"
)

var errInMemNotFound = errors.New("404 Not Found")

// InMem is an in-memory gitrepo.Source for unit tests.
type InMem struct {
	mu       sync.Mutex
	files    map[string]map[string]string // "owner/repo@branch" -> path -> content
	failures map[string]error             // url -> error returned instead of a body
	calls    []string
}

// NewInMem creates an empty InMem source.
func NewInMem() *InMem {
	return &InMem{
		files:    make(map[string]map[string]string),
		failures: make(map[string]error),
	}
}

// SetFile seeds a file on a branch. Parent directories are implied.
func (m *InMem) SetFile(owner, repo, branch, path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := refKey(owner, repo, branch)
	if m.files[key] == nil {
		m.files[key] = make(map[string]string)
	}
	m.files[key][path] = content
}

// Fail makes every request for url return err.
func (m *InMem) Fail(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[url] = err
}

// Calls returns every URL requested so far, in order.
func (m *InMem) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// TreeURL is the listing URL InMem assigns to the directory at path.
func TreeURL(owner, repo, branch, path string) string {
	return "inmem://" + refKey(owner, repo, branch) + "/tree/" + path
}

// BlobURL is the content URL InMem assigns to the file at path.
func BlobURL(owner, repo, branch, path string) string {
	return "inmem://" + refKey(owner, repo, branch) + "/blob/" + path
}

// GetTree lists every file and implied directory on the branch, sorted by path.
func (m *InMem) GetTree(_ context.Context, owner, repo, ref string) (*gitrepo.Tree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	url := fmt.Sprintf("inmem://%s/%s/git/trees/%s?recursive=1", owner, repo, ref)
	m.calls = append(m.calls, url)
	if err, ok := m.failures[url]; ok {
		return nil, err
	}

	files, ok := m.files[refKey(owner, repo, ref)]
	if !ok {
		return nil, &gitrepo.NetworkError{URL: url, Err: errInMemNotFound}
	}

	return &gitrepo.Tree{
		SHA:     "inmem-" + ref,
		Entries: m.entries(owner, repo, ref, files, nil),
	}, nil
}

// GetBlob returns the base64-encoded content behind a BlobURL.
func (m *InMem) GetBlob(_ context.Context, url string) (*gitrepo.Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, url)
	if err, ok := m.failures[url]; ok {
		return nil, err
	}

	content, ok := m.resolveBlob(url)
	if !ok {
		return nil, &gitrepo.NetworkError{URL: url, Err: errInMemNotFound}
	}
	return &gitrepo.Blob{
		SHA:      blobSHA(content),
		Size:     len(content),
		Content:  base64.StdEncoding.EncodeToString([]byte(content)),
		Encoding: "base64",
	}, nil
}

// GetRaw returns the compact JSON listing of the immediate children behind a TreeURL.
func (m *InMem) GetRaw(_ context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, url)
	if err, ok := m.failures[url]; ok {
		return nil, err
	}

	rest, ok := strings.CutPrefix(url, "inmem://")
	if !ok {
		return nil, &gitrepo.NetworkError{URL: url, Err: errInMemNotFound}
	}
	key, dir, ok := strings.Cut(rest, "/tree/")
	if !ok {
		return nil, &gitrepo.NetworkError{URL: url, Err: errInMemNotFound}
	}
	files, ok := m.files[key]
	if !ok {
		return nil, &gitrepo.NetworkError{URL: url, Err: errInMemNotFound}
	}
	owner, repo, branch := splitRefKey(key)

	body, err := json.Marshal(gitrepo.Tree{
		SHA:     "inmem-" + dir,
		Entries: m.entries(owner, repo, branch, files, &dir),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal listing: %w", err)
	}
	return body, nil
}

// entries builds tree entries for files. With parent set, only the immediate
// children of that directory are returned, with paths relative to it.
func (m *InMem) entries(owner, repo, branch string, files map[string]string, parent *string) []gitrepo.TreeEntry {
	seen := make(map[string]bool)
	var out []gitrepo.TreeEntry

	add := func(path string, e gitrepo.TreeEntry) {
		if seen[path] {
			return
		}
		seen[path] = true
		out = append(out, e)
	}

	for path, content := range files {
		segs := strings.Split(path, "/")
		for i := 1; i <= len(segs); i++ {
			p := strings.Join(segs[:i], "/")
			e := gitrepo.TreeEntry{Path: p}
			if i == len(segs) {
				e.Type = gitrepo.EntryBlob
				e.URL = BlobURL(owner, repo, branch, p)
				e.SHA = blobSHA(content)
				e.Size = len(content)
			} else {
				e.Type = gitrepo.EntryTree
				e.URL = TreeURL(owner, repo, branch, p)
				e.SHA = blobSHA("tree " + p)
			}

			if parent != nil {
				prefix := *parent + "/"
				if !strings.HasPrefix(p, prefix) || strings.Contains(p[len(prefix):], "/") {
					continue
				}
				e.Path = p[len(prefix):]
			}
			add(p, e)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (m *InMem) resolveBlob(url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, "inmem://")
	if !ok {
		return "", false
	}
	key, path, ok := strings.Cut(rest, "/blob/")
	if !ok {
		return "", false
	}
	content, ok := m.files[key][path]
	return content, ok
}

func refKey(owner, repo, branch string) string {
	return owner + "/" + repo + "@" + branch
}

func splitRefKey(key string) (owner, repo, branch string) {
	ownerRepo, branch, _ := strings.Cut(key, "@")
	owner, repo, _ = strings.Cut(ownerRepo, "/")
	return owner, repo, branch
}

func blobSHA(content string) string {
	sum := sha1.Sum([]byte(content)) //nolint:gosec // git object ids are sha1
	return hex.EncodeToString(sum[:])
}

// Package githubmock is a fake of the slice of the GitHub git data API that
// repofetch consumes: recursive tree listings, subtree listings and blobs.
// It backs the mock-github app and the end-to-end tests.
package githubmock

import (
	"crypto/sha1" //nolint:gosec // git object ids are sha1
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Store holds file content keyed by "owner/repo", then branch, then path.
type Store struct {
	mu    sync.RWMutex
	repos map[string]map[string]map[string]string

	// TruncateAfter caps recursive listings to that many entries and sets
	// "truncated": true, as GitHub does for very large trees. Zero disables it.
	TruncateAfter int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{repos: make(map[string]map[string]map[string]string)}
}

// SetFile writes content at path on a branch. Parent directories are implied.
func (s *Store) SetFile(owner, repo, branch, path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := owner + "/" + repo
	if s.repos[key] == nil {
		s.repos[key] = make(map[string]map[string]string)
	}
	if s.repos[key][branch] == nil {
		s.repos[key][branch] = make(map[string]string)
	}
	s.repos[key][branch][strings.Trim(path, "/")] = content
}

// Repos returns the number of seeded repositories.
func (s *Store) Repos() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.repos)
}

// node is one object of a branch snapshot.
type node struct {
	path    string
	isTree  bool
	sha     string
	content string
}

// resolveTree finds the directory named by ref: a branch name means the root
// tree, anything else is matched against directory SHAs on every branch.
func (s *Store) resolveTree(owner, repo, ref string) (branch, dir string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	branches := s.repos[owner+"/"+repo]
	if _, found := branches[ref]; found {
		return ref, "", true
	}
	for b, files := range branches {
		for _, n := range snapshot(b, files) {
			if n.isTree && n.sha == ref {
				return b, n.path, true
			}
		}
	}
	return "", "", false
}

// resolveBlob returns the content whose blob SHA is sha.
func (s *Store) resolveBlob(owner, repo, sha string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, files := range s.repos[owner+"/"+repo] {
		for _, content := range files {
			if blobSHA(content) == sha {
				return content, true
			}
		}
	}
	return "", false
}

// list returns the nodes below dir on branch. With recursive unset only the
// immediate children are returned.
func (s *Store) list(owner, repo, branch, dir string, recursive bool) []node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := s.repos[owner+"/"+repo][branch]
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	var out []node
	for _, n := range snapshot(branch, files) {
		if n.path == "" || !strings.HasPrefix(n.path, prefix) {
			continue
		}
		if !recursive && strings.Contains(n.path[len(prefix):], "/") {
			continue
		}
		out = append(out, n)
	}
	return out
}

// snapshot expands a branch's files into blobs plus every implied directory,
// including the root (path ""), sorted by path.
func snapshot(branch string, files map[string]string) []node {
	seen := map[string]bool{"": true}
	nodes := []node{{path: "", isTree: true, sha: treeSHA(branch, "")}}

	for path, content := range files {
		segs := strings.Split(path, "/")
		for i := 1; i < len(segs); i++ {
			dir := strings.Join(segs[:i], "/")
			if seen[dir] {
				continue
			}
			seen[dir] = true
			nodes = append(nodes, node{path: dir, isTree: true, sha: treeSHA(branch, dir)})
		}
		if !seen[path] {
			seen[path] = true
			nodes = append(nodes, node{path: path, sha: blobSHA(content), content: content})
		}
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].path < nodes[j].path })
	return nodes
}

// blobSHA is the git object id of content.
func blobSHA(content string) string {
	h := sha1.New() //nolint:gosec // git object ids are sha1
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}

// treeSHA is a stable id for a directory of a branch. It is not git's tree
// hash; only uniqueness matters here.
func treeSHA(branch, dir string) string {
	sum := sha1.Sum([]byte("tree " + branch + ":" + dir)) //nolint:gosec // git object ids are sha1
	return hex.EncodeToString(sum[:])
}

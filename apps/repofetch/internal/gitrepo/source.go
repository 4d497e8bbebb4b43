// Package gitrepo defines the port the fetcher uses to read repository
// metadata from a git hosting provider, plus the error taxonomy shared by the
// fetcher and its adapters.
package gitrepo

import (
	"context"
	"encoding/base64"
	"strings"
)

// EntryType is the kind of object a tree entry points at.
type EntryType string

const (
	EntryBlob   EntryType = "blob"
	EntryTree   EntryType = "tree"
	EntryCommit EntryType = "commit" // submodule
)

// TreeEntry is one file-system entry of a repository tree.
type TreeEntry struct {
	Path string    `json:"path"` // slash-separated, relative to the repo root
	Type EntryType `json:"type"`
	URL  string    `json:"url"` // endpoint for this entry's own content or listing
	SHA  string    `json:"sha"`
	Size int       `json:"size,omitempty"`
}

// Tree is the flattened, recursive listing of a branch.
type Tree struct {
	SHA       string      `json:"sha"`
	Truncated bool        `json:"truncated"`
	Entries   []TreeEntry `json:"tree"`
}

// Blob is the body returned by a per-blob endpoint. Content is still encoded.
type Blob struct {
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Decode returns the blob's bytes according to its declared encoding.
func (b *Blob) Decode() ([]byte, error) {
	switch strings.ToLower(b.Encoding) {
	case "base64":
		// GitHub wraps base64 content at 60 columns; the decoder skips \r and \n.
		out, err := base64.StdEncoding.DecodeString(b.Content)
		if err != nil {
			return nil, &DecodeError{SHA: b.SHA, Encoding: b.Encoding, Err: err}
		}
		return out, nil
	case "utf-8", "utf8":
		return []byte(b.Content), nil
	default:
		return nil, &DecodeError{SHA: b.SHA, Encoding: b.Encoding, Err: ErrUnsupportedEncoding}
	}
}

// Source is the port the fetcher depends on to read a hosted repository.
type Source interface {
	// GetTree returns the recursive tree listing of ref.
	GetTree(ctx context.Context, owner, repo, ref string) (*Tree, error)
	// GetBlob fetches a per-blob metadata endpoint.
	GetBlob(ctx context.Context, url string) (*Blob, error)
	// GetRaw returns the unparsed response body of url.
	GetRaw(ctx context.Context, url string) ([]byte, error)
}

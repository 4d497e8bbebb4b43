// Package github implements the gitrepo.Source port using the official
// go-github library. Wire it up with a *github.Client from
// apps/repofetch/internal/platform/github.
package github

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	gogithub "github.com/google/go-github/v75/github"

	"github.com/tilsley/repofetch/apps/repofetch/internal/gitrepo"
)

// Adapter wraps a go-github client and implements gitrepo.Source.
type Adapter struct {
	gh *gogithub.Client
}

// New creates an Adapter from a *github.Client.
func New(gh *gogithub.Client) *Adapter {
	return &Adapter{gh: gh}
}

// GetTree fetches the recursive tree listing of ref in a single request.
func (a *Adapter) GetTree(ctx context.Context, owner, repo, ref string) (*gitrepo.Tree, error) {
	tree, resp, err := a.gh.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		url := a.gh.BaseURL.JoinPath("repos", owner, repo, "git", "trees", ref).String() + "?recursive=1"
		return nil, classify(url, resp, err)
	}

	out := &gitrepo.Tree{
		SHA:       tree.GetSHA(),
		Truncated: tree.GetTruncated(),
		Entries:   make([]gitrepo.TreeEntry, 0, len(tree.Entries)),
	}
	for _, e := range tree.Entries {
		out.Entries = append(out.Entries, gitrepo.TreeEntry{
			Path: e.GetPath(),
			Type: gitrepo.EntryType(e.GetType()),
			URL:  e.GetURL(),
			SHA:  e.GetSHA(),
			Size: e.GetSize(),
		})
	}
	return out, nil
}

// GetBlob fetches a blob endpoint, typically the url of a blob tree entry.
func (a *Adapter) GetBlob(ctx context.Context, url string) (*gitrepo.Blob, error) {
	req, err := a.gh.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &gitrepo.NetworkError{URL: url, Err: fmt.Errorf("build request: %w", err)}
	}

	var blob gogithub.Blob
	resp, err := a.gh.Do(ctx, req, &blob)
	if err != nil {
		return nil, classify(url, resp, err)
	}

	return &gitrepo.Blob{
		SHA:      blob.GetSHA(),
		Size:     blob.GetSize(),
		Content:  blob.GetContent(),
		Encoding: blob.GetEncoding(),
	}, nil
}

// GetRaw returns the response body of url without decoding it.
func (a *Adapter) GetRaw(ctx context.Context, url string) ([]byte, error) {
	req, err := a.gh.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, &gitrepo.NetworkError{URL: url, Err: fmt.Errorf("build request: %w", err)}
	}

	// An io.Writer sink makes go-github copy the body instead of decoding it.
	var buf bytes.Buffer
	resp, err := a.gh.Do(ctx, req, &buf)
	if err != nil {
		return nil, classify(url, resp, err)
	}
	return buf.Bytes(), nil
}

// classify maps a go-github error onto the gitrepo taxonomy. A failure that
// still carries a 2xx response can only have come from decoding the body.
func classify(url string, resp *gogithub.Response, err error) error {
	if resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &gitrepo.ParseError{URL: url, Err: err}
	}
	return &gitrepo.NetworkError{URL: url, Err: err}
}

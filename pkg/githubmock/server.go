package githubmock

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// TreeEntry mirrors an element of the "tree" array in GitHub's git trees API.
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size *int   `json:"size,omitempty"`
	URL  string `json:"url"`
}

// TreeResponse mirrors GET /repos/:owner/:repo/git/trees/:ref.
type TreeResponse struct {
	SHA       string      `json:"sha"`
	URL       string      `json:"url"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// BlobResponse mirrors GET /repos/:owner/:repo/git/blobs/:sha.
type BlobResponse struct {
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
	URL      string `json:"url"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// NewRouter returns a gin engine serving s. Extra middleware (request logging,
// tracing) runs after recovery.
func NewRouter(s *Store, log *slog.Logger, middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware...)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Tree endpoint. :ref is a branch name (root tree) or a tree SHA, the
	// same two forms GitHub accepts. ?recursive=<anything> lists every descendant.
	r.GET("/repos/:owner/:repo/git/trees/:ref", func(c *gin.Context) {
		owner := c.Param("owner")
		repo := c.Param("repo")
		ref := c.Param("ref")

		branch, dir, ok := s.resolveTree(owner, repo, ref)
		if !ok {
			notFound(c, fmt.Sprintf("tree %q not found in %s/%s", ref, owner, repo))
			return
		}

		recursive := c.Query("recursive") != ""
		nodes := s.list(owner, repo, branch, dir, recursive)
		base := baseURL(c, owner, repo)

		prefix := ""
		if dir != "" {
			prefix = dir + "/"
		}
		resp := TreeResponse{
			SHA:  treeSHA(branch, dir),
			URL:  base + "/git/trees/" + treeSHA(branch, dir),
			Tree: make([]TreeEntry, 0, len(nodes)),
		}
		for _, n := range nodes {
			if recursive && s.TruncateAfter > 0 && len(resp.Tree) >= s.TruncateAfter {
				resp.Truncated = true
				break
			}
			resp.Tree = append(resp.Tree, toEntry(base, prefix, n))
		}

		log.Debug("tree served", "repo", owner+"/"+repo, "ref", ref, "recursive", recursive, "entries", len(resp.Tree))
		c.JSON(http.StatusOK, resp)
	})

	r.GET("/repos/:owner/:repo/git/blobs/:sha", func(c *gin.Context) {
		owner := c.Param("owner")
		repo := c.Param("repo")
		sha := c.Param("sha")

		content, ok := s.resolveBlob(owner, repo, sha)
		if !ok {
			notFound(c, fmt.Sprintf("blob %q not found in %s/%s", sha, owner, repo))
			return
		}

		c.JSON(http.StatusOK, BlobResponse{
			SHA:      sha,
			Size:     len(content),
			URL:      baseURL(c, owner, repo) + "/git/blobs/" + sha,
			Content:  wrap(base64.StdEncoding.EncodeToString([]byte(content)), 60),
			Encoding: "base64",
		})
	})

	return r
}

func toEntry(base, prefix string, n node) TreeEntry {
	path := strings.TrimPrefix(n.path, prefix)
	if n.isTree {
		return TreeEntry{Path: path, Mode: "040000", Type: "tree", SHA: n.sha, URL: base + "/git/trees/" + n.sha}
	}
	size := len(n.content)
	return TreeEntry{Path: path, Mode: "100644", Type: "blob", SHA: n.sha, Size: &size, URL: base + "/git/blobs/" + n.sha}
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, gin.H{
		"message":           msg,
		"documentation_url": "https://docs.github.com/rest",
	})
}

// baseURL is the absolute repo API root as seen by the caller, so entry URLs
// point back at this server whichever address it listens on.
func baseURL(c *gin.Context, owner, repo string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/repos/%s/%s", scheme, c.Request.Host, owner, repo)
}

// wrap inserts a newline every n characters, matching GitHub's blob encoding.
func wrap(s string, n int) string {
	var b strings.Builder
	for len(s) > n {
		b.WriteString(s[:n])
		b.WriteByte('\n')
		s = s[n:]
	}
	b.WriteString(s)
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	return b.String()
}

// Package github provides the factory for the GitHub API client used by the
// adapter in apps/repofetch/internal/adapters/github. Requests are
// unauthenticated.
package github

import (
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v75/github"
)

// DefaultAPIURL is the public GitHub REST API root.
const DefaultAPIURL = "https://api.github.com"

// NewClient creates a *github.Client. Pass baseURL="" to use the real GitHub
// API, or a custom URL (e.g. "http://localhost:9090") for a mock server.
// httpClient may be nil.
func NewClient(baseURL string, httpClient *http.Client) (*gogithub.Client, error) {
	c := gogithub.NewClient(httpClient)
	if err := applyBaseURL(c, baseURL); err != nil {
		return nil, err
	}
	return c, nil
}

func applyBaseURL(c *gogithub.Client, baseURL string) error {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" || baseURL == DefaultAPIURL {
		return nil
	}
	u, err := url.Parse(baseURL + "/")
	if err != nil {
		return err
	}
	c.BaseURL = u
	return nil
}

package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_DefaultsToPublicAPI(t *testing.T) {
	for _, base := range []string{"", DefaultAPIURL, DefaultAPIURL + "/"} {
		c, err := NewClient(base, nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultAPIURL+"/", c.BaseURL.String(), "base %q", base)
	}
}

func TestNewClient_CustomBaseURL(t *testing.T) {
	c, err := NewClient("http://localhost:9090", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9090/", c.BaseURL.String())
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient("http://[::1", nil)
	assert.Error(t, err)
}

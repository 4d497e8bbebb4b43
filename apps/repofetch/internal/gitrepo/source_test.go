package gitrepo_test

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/repofetch/apps/repofetch/internal/gitrepo"
)

func TestBlobDecode_Base64WithLineBreaks(t *testing.T) {
	// "hello, world\n" wrapped the way the GitHub blob API wraps it.
	b := &gitrepo.Blob{Content: "aGVsbG8s\nIHdvcmxk\nCg==\n", Encoding: "base64"}
	out, err := b.Decode()
	require.NoError(t, err)
	assert.Equal(t, "hello, world\n", string(out))
}

func TestBlobDecode_UTF8(t *testing.T) {
	b := &gitrepo.Blob{Content: "plain", Encoding: "utf-8"}
	out, err := b.Decode()
	require.NoError(t, err)
	assert.Equal(t, "plain", string(out))
}

func TestBlobDecode_UnknownEncoding(t *testing.T) {
	b := &gitrepo.Blob{SHA: "abc", Content: "x", Encoding: "rot13"}
	_, err := b.Decode()

	var de *gitrepo.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "rot13", de.Encoding)
	assert.ErrorIs(t, err, gitrepo.ErrUnsupportedEncoding)
}

func TestBlobDecode_BadBase64(t *testing.T) {
	b := &gitrepo.Blob{Content: "!!!not base64", Encoding: "base64"}
	_, err := b.Decode()

	var de *gitrepo.DecodeError
	assert.ErrorAs(t, err, &de)
}

func TestIsIOClass(t *testing.T) {
	ioErr := &gitrepo.IOError{Op: "create", Path: "/x", Err: os.ErrExist}
	nf := &gitrepo.PathNotFoundError{Path: "a"}
	netErr := &gitrepo.NetworkError{URL: "u", Err: errors.New("boom")}

	assert.True(t, gitrepo.IsIOClass(ioErr))
	assert.True(t, gitrepo.IsIOClass(fmt.Errorf("wrapped: %w", ioErr)))
	assert.True(t, gitrepo.IsIOClass(nf))
	assert.False(t, gitrepo.IsIOClass(netErr))
	assert.False(t, gitrepo.IsIOClass(&gitrepo.DecodeError{Err: errors.New("x")}))
	assert.ErrorIs(t, ioErr, os.ErrExist)
}

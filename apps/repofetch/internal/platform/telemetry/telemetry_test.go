package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledIsNoop(t *testing.T) {
	tel, err := New(context.Background(), "repofetch", false)
	require.NoError(t, err)
	require.NotNil(t, tel.Shutdown)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

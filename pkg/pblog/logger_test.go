package pblog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DevelopmentAndProduction(t *testing.T) {
	dev, err := New(true)
	require.NoError(t, err)
	assert.NotNil(t, dev)

	prod, err := New(false)
	require.NoError(t, err)
	assert.NotNil(t, prod)
}

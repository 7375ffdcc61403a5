package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBuildKnownDialect(t *testing.T) {
	reg := NewDefaultRegistry(Options{})
	r, err := reg.Build("sqlite")
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestRegistryBuildUnknownDialect(t *testing.T) {
	reg := NewDefaultRegistry(Options{})
	_, err := reg.Build("nonexistent")
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestRegistryRegisterOverwrites(t *testing.T) {
	reg := NewRegistry(Options{})
	first, calls := 0, 0
	reg.Register("x", func(Options) (Runner, error) {
		first++
		return newSQLRunner("x", Options{}), nil
	})
	reg.Register("x", func(Options) (Runner, error) {
		calls++
		return newSQLRunner("x", Options{}), nil
	})
	_, err := reg.Build("x")
	require.NoError(t, err)
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, calls)
}

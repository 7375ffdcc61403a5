package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGateTryAcquireRespectsCapacity(t *testing.T) {
	g := NewGate(2)
	assert.True(t, g.TryAcquire())
	assert.True(t, g.TryAcquire())
	assert.False(t, g.TryAcquire())
	assert.Equal(t, 2, g.InUse())
	assert.Equal(t, 2, g.Capacity())
}

func TestGateReleaseFreesSlot(t *testing.T) {
	g := NewGate(1)
	require := assert.New(t)
	require.True(g.TryAcquire())
	require.False(g.TryAcquire())
	g.Release()
	require.True(g.TryAcquire())
}

func TestGateAcquireBlocksUntilCanceled(t *testing.T) {
	g := NewGate(1)
	g.TryAcquire()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := g.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewGateClampsNegativeCapacity(t *testing.T) {
	g := NewGate(-5)
	assert.Equal(t, 0, g.Capacity())
	assert.False(t, g.TryAcquire())
}

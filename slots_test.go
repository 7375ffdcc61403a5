package dispatcher

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserSlotsHasRoom(t *testing.T) {
	s := NewUserSlots()
	user := uuid.New()
	assert.True(t, s.HasRoom(user, 2))
	s.Acquire(user)
	assert.True(t, s.HasRoom(user, 2))
	s.Acquire(user)
	assert.False(t, s.HasRoom(user, 2))
}

func TestUserSlotsReleasePrunesEntry(t *testing.T) {
	s := NewUserSlots()
	user := uuid.New()
	s.Acquire(user)
	assert.Equal(t, 1, s.InFlight(user))
	s.Release(user)
	assert.Equal(t, 0, s.InFlight(user))
	assert.Empty(t, s.counts)
}

func TestUserSlotsIndependentPerUser(t *testing.T) {
	s := NewUserSlots()
	a, b := uuid.New(), uuid.New()
	s.Acquire(a)
	s.Acquire(a)
	s.Acquire(b)
	assert.Equal(t, 2, s.InFlight(a))
	assert.Equal(t, 1, s.InFlight(b))
}

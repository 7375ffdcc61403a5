package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionLegalEdges(t *testing.T) {
	cases := []struct {
		from, to Status
	}{
		{Pending, Queued},
		{Queued, Running},
		{Running, Transferring},
		{Running, Completed},
		{Running, Failed},
		{Transferring, Completed},
		{Transferring, Failed},
	}
	for _, c := range cases {
		assert.True(t, CanTransition(c.from, c.to), "%s -> %s should be legal", c.from, c.to)
	}
}

func TestCanTransitionIllegalEdges(t *testing.T) {
	cases := []struct {
		from, to Status
	}{
		{Pending, Running},
		{Pending, Completed},
		{Queued, Transferring},
		{Completed, Pending},
		{Failed, Pending},
		{Completed, Failed},
		{Unknown, Queued},
	}
	for _, c := range cases {
		assert.False(t, CanTransition(c.from, c.to), "%s -> %s should be illegal", c.from, c.to)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, Completed.Terminal())
	assert.True(t, Failed.Terminal())
	assert.False(t, Pending.Terminal())
	assert.False(t, Queued.Terminal())
	assert.False(t, Running.Terminal())
	assert.False(t, Transferring.Terminal())
	assert.False(t, Unknown.Terminal())
}

func TestStatusInFlight(t *testing.T) {
	assert.True(t, Queued.InFlight())
	assert.True(t, Running.InFlight())
	assert.True(t, Transferring.InFlight())
	assert.False(t, Pending.InFlight())
	assert.False(t, Completed.InFlight())
	assert.False(t, Failed.InFlight())
}

func TestParseStatusRoundTrip(t *testing.T) {
	for _, s := range []Status{Pending, Queued, Running, Transferring, Completed, Failed, Unknown} {
		parsed, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
}

func TestParseStatusUnknownString(t *testing.T) {
	_, err := ParseStatus("bogus")
	assert.Error(t, err)
}

func TestParseStatusEmptyStringIsUnknown(t *testing.T) {
	s, err := ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, Unknown, s)
}

func TestStatusMarshalUnmarshalText(t *testing.T) {
	for _, s := range []Status{Pending, Queued, Running, Transferring, Completed, Failed} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var got Status
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, s, got)
	}
}

func TestStatusUnmarshalTextRejectsUnknown(t *testing.T) {
	var s Status
	err := s.UnmarshalText([]byte("not-a-status"))
	assert.Error(t, err)
}

package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagingTwoWayReference(t *testing.T) {
	s := NewStagingArea()
	m := &Media{}

	entry := s.Stage(m, []byte("payload"), "a.png", "image/png")
	assert.Equal(t, entry.ObjectURL, m.URL)
	assert.Equal(t, entry.TempID, m.TempID)
	assert.True(t, m.Staged())

	got, ok := s.Resolve(m.TempID)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), got.Data)
}

func TestStagingDiscard(t *testing.T) {
	s := NewStagingArea()
	m := &Media{}
	entry := s.Stage(m, []byte("x"), "a.png", "image/png")

	s.Discard(entry.TempID)
	_, ok := s.Resolve(entry.TempID)
	assert.False(t, ok)
	assert.Empty(t, s.Pending())
}

func TestStagingPendingAndClear(t *testing.T) {
	s := NewStagingArea()
	s.Stage(&Media{}, []byte("1"), "a.png", "image/png")
	s.Stage(&Media{}, []byte("2"), "b.png", "image/png")
	assert.Len(t, s.Pending(), 2)

	s.Clear()
	assert.Empty(t, s.Pending())
}

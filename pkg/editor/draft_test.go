package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasnote/canvasnote/pkg/models"
)

func TestDraftEncodeDecodeRoundTrip(t *testing.T) {
	s := newTestSession(newFakeAPI(), yes)
	s.SetTitle("draft title")
	s.AddBlock(models.BlockHeading)
	b := s.AddBlock(models.BlockImage)
	_, err := s.StageMedia(b, []byte("bytes"), "a.png", "image/png")
	require.NoError(t, err)

	d := s.Snapshot()
	assert.Len(t, d.StagedIDs, 1)

	raw, err := EncodeDraft(d)
	require.NoError(t, err)

	got, err := DecodeDraft(raw)
	require.NoError(t, err)
	assert.Equal(t, d.Title, got.Title)
	assert.Equal(t, d.NoteID, got.NoteID)
	assert.Equal(t, d.Elements, got.Elements)
	assert.Equal(t, d.StagedIDs, got.StagedIDs)
}

func TestDraftRestoreMarksDirty(t *testing.T) {
	s := newTestSession(newFakeAPI(), yes)
	s.SetTitle("original")
	s.AddBlock(models.BlockText)
	d := s.Snapshot()

	restored := newTestSession(newFakeAPI(), yes)
	restored.RestoreDraft(d)

	assert.Equal(t, "original", restored.Title())
	assert.Equal(t, 1, restored.Canvas().Len())
	assert.True(t, restored.Dirty())
}

func TestDraftRestoredStagedMediaDegradesOnSave(t *testing.T) {
	// The draft records staged temp IDs but not their payloads. After a
	// restore the next save clears those slots instead of failing.
	s := newTestSession(newFakeAPI(), yes)
	b := s.AddBlock(models.BlockImage)
	_, err := s.StageMedia(b, []byte("bytes"), "a.png", "image/png")
	require.NoError(t, err)
	d := s.Snapshot()

	api := newFakeAPI()
	restored := newTestSession(api, yes)
	restored.RestoreDraft(d)
	require.NoError(t, restored.Save(context.Background()))

	assert.Equal(t, 0, api.uploadCount)
	saved := api.notes[restored.NoteID()]
	assert.Nil(t, saved.Data.Elements[0].Media.URL)
}

func TestDecodeDraftRejectsGarbage(t *testing.T) {
	_, err := DecodeDraft([]byte("not cbor at all"))
	assert.Error(t, err)
}

package editor

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/canvasnote/canvasnote/pkg/models"
)

// Draft is a crash-recovery snapshot of an in-progress session: identity,
// title, and the serialized block list. Staged media is recorded by temp ID
// only; the payload bytes are not part of the snapshot, so media staged
// before a crash comes back as an empty slot on the next save.
type Draft struct {
	NoteID     models.NoteID      `cbor:"note_id"`
	Title      string             `cbor:"title"`
	CategoryID *models.CategoryID `cbor:"category_id,omitempty"`
	Elements   []models.BlockData `cbor:"elements"`
	StagedIDs  []string           `cbor:"staged_ids,omitempty"`
	SavedAt    time.Time          `cbor:"saved_at"`
}

// Snapshot captures the current session as a draft.
func (s *Session) Snapshot() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := Draft{
		NoteID:     s.noteID,
		Title:      s.title,
		CategoryID: s.categoryID,
		Elements:   Serialize(s.canvas),
		SavedAt:    time.Now().UTC(),
	}
	for _, entry := range s.staging.Pending() {
		d.StagedIDs = append(d.StagedIDs, entry.TempID)
	}
	return d
}

// RestoreDraft replaces the session contents with a snapshot. The restored
// session is dirty; the draft exists precisely because it was never saved.
func (s *Session) RestoreDraft(d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.canvas = Deserialize(d.Elements)
	s.rebuildDrag()
	s.staging.Clear()
	s.noteID = d.NoteID
	s.title = d.Title
	s.categoryID = d.CategoryID
	s.dirty = true
	s.focusedID = ""
}

// EncodeDraft serializes a draft to its on-disk CBOR form.
func EncodeDraft(d Draft) ([]byte, error) {
	raw, err := cbor.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding draft: %w", err)
	}
	return raw, nil
}

// DecodeDraft parses a CBOR draft snapshot.
func DecodeDraft(raw []byte) (Draft, error) {
	var d Draft
	if err := cbor.Unmarshal(raw, &d); err != nil {
		return Draft{}, fmt.Errorf("decoding draft: %w", err)
	}
	return d, nil
}

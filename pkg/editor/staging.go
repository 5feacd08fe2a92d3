package editor

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// StagedMedia is one locally held media payload awaiting upload. ObjectURL
// is the transient blob: reference the canvas shows until the permanent URL
// exists.
type StagedMedia struct {
	TempID    string
	ObjectURL string
	Filename  string
	MIME      string
	Data      []byte
}

// StagingArea holds media payloads between the moment the user picks a file
// (or stops a recording) and the moment a save uploads them. Entries and
// block media URLs reference each other both ways: the block's URL is the
// entry's object URL and the block's TempID names the entry.
type StagingArea struct {
	mu      sync.Mutex
	entries map[string]*StagedMedia
}

func NewStagingArea() *StagingArea {
	return &StagingArea{entries: make(map[string]*StagedMedia)}
}

// Stage registers a payload and points the block's media slot at it.
func (s *StagingArea) Stage(m *Media, data []byte, filename, mime string) *StagedMedia {
	entry := &StagedMedia{
		TempID:   uuid.NewString(),
		Filename: filename,
		MIME:     mime,
		Data:     data,
	}
	entry.ObjectURL = fmt.Sprintf("blob:%s", entry.TempID)

	s.mu.Lock()
	s.entries[entry.TempID] = entry
	s.mu.Unlock()

	m.URL = entry.ObjectURL
	m.TempID = entry.TempID
	return entry
}

// Resolve looks up a staged entry by temp ID.
func (s *StagingArea) Resolve(tempID string) (*StagedMedia, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[tempID]
	return entry, ok
}

// Discard drops a staged entry, releasing its payload. Called both when the
// user removes the block and when an upload settles.
func (s *StagingArea) Discard(tempID string) {
	s.mu.Lock()
	delete(s.entries, tempID)
	s.mu.Unlock()
}

// Pending returns all staged entries, in no particular order.
func (s *StagingArea) Pending() []*StagedMedia {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*StagedMedia, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// Clear drops everything, used when the session resets.
func (s *StagingArea) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]*StagedMedia)
	s.mu.Unlock()
}

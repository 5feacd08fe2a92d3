package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/canvasnote/canvasnote/pkg/models"
)

// API is the slice of the server surface the editor needs. The HTTP client
// satisfies it; tests substitute fakes.
type API interface {
	CreateNote(ctx context.Context, note *models.Note) (*models.Note, error)
	UpdateNote(ctx context.Context, note *models.Note) (*models.Note, error)
	GetNote(ctx context.Context, id models.NoteID) (*models.Note, error)
	DeleteNote(ctx context.Context, id models.NoteID) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	UploadImage(ctx context.Context, noteID models.NoteID, filename, mime string, data []byte) (string, error)
}

// Confirmer answers the destructive-operation prompts. The UI wires this to
// a dialog; tests wire it to a constant.
type Confirmer func(prompt string) bool

var (
	// ErrConfirmDeclined reports that the user answered no to a
	// destructive-operation prompt. State is untouched.
	ErrConfirmDeclined = errors.New("confirmation declined")
	// ErrNoteNotFound reports a load of a note ID the server does not have.
	ErrNoteNotFound = errors.New("note not found")
	// ErrNoCurrentNote reports a delete with no saved note open.
	ErrNoCurrentNote = errors.New("no current note")
)

// Session owns everything one open editor holds: the canvas, the drag
// engine, the staging area, the current note identity, and the lazily
// fetched category list. It replaces the pile of window-level globals the
// editor grew out of, and its mutex makes save/load/clear mutually
// exclusive, so a second save cannot start while uploads from the first are
// still settling.
type Session struct {
	mu      sync.Mutex
	log     zerolog.Logger
	api     API
	confirm Confirmer

	canvas  *Canvas
	drag    *DragEngine
	staging *StagingArea

	noteID     models.NoteID
	title      string
	categoryID *models.CategoryID

	categories       []models.Category
	categoriesLoaded bool

	dirty     bool
	focusedID string
}

func NewSession(api API, confirm Confirmer, log zerolog.Logger) *Session {
	s := &Session{
		api:     api,
		confirm: confirm,
		log:     log,
		staging: NewStagingArea(),
	}
	s.canvas = NewCanvas()
	s.rebuildDrag()
	return s
}

// rebuildDrag attaches a fresh drag engine to the current canvas, with the
// session observing it so drag results hit the same dirty and focus
// tracking as AddBlock.
func (s *Session) rebuildDrag() {
	s.drag = NewDragEngine(s.canvas)
	s.drag.observer = s
}

func (s *Session) blockInserted(b *Block) {
	s.focusedID = b.ID
	s.dirty = true
}

func (s *Session) blocksMoved() {
	s.dirty = true
}

func (s *Session) Canvas() *Canvas        { return s.canvas }
func (s *Session) Drag() *DragEngine      { return s.drag }
func (s *Session) Staging() *StagingArea  { return s.staging }
func (s *Session) NoteID() models.NoteID  { return s.noteID }
func (s *Session) Title() string          { return s.title }
func (s *Session) Dirty() bool            { return s.dirty }
func (s *Session) FocusedBlockID() string { return s.focusedID }

func (s *Session) SetTitle(title string) {
	s.title = title
	s.dirty = true
}

func (s *Session) SetCategory(id *models.CategoryID) {
	s.categoryID = id
	s.dirty = true
}

// Touch marks the session dirty after a direct sub-model edit (checklist
// toggles, table cells and the like mutate their blocks in place).
func (s *Session) Touch() {
	s.dirty = true
}

// AddBlock creates a block of the given type at the end of the document.
// The new block requests focus so the user can type immediately.
func (s *Session) AddBlock(t models.BlockType) *Block {
	b := NewBlock(t)
	s.canvas.Append(b)
	s.focusedID = b.ID
	s.dirty = true
	return b
}

// RemoveBlock deletes a block without confirmation, discarding any staged
// media it referenced.
func (s *Session) RemoveBlock(id string) bool {
	i := s.canvas.IndexOf(id)
	if i < 0 {
		return false
	}
	b := s.canvas.Blocks()[i]
	if b.Media != nil && b.Media.TempID != "" {
		s.staging.Discard(b.Media.TempID)
	}
	s.canvas.Remove(id)
	if s.focusedID == id {
		s.focusedID = ""
	}
	s.dirty = true
	return true
}

// StageMedia registers a picked file or finished recording for the given
// block and points the block at the staged bytes.
func (s *Session) StageMedia(b *Block, data []byte, filename, mime string) (*StagedMedia, error) {
	if b.Media == nil {
		return nil, fmt.Errorf("block %q has no media slot", b.ID)
	}
	if b.Media.TempID != "" {
		s.staging.Discard(b.Media.TempID)
	}
	entry := s.staging.Stage(b.Media, data, filename, mime)
	s.dirty = true
	return entry, nil
}

type uploadResult struct {
	block *Block
	url   string
	err   error
}

// Save runs the two-phase save protocol. Phase one uploads every staged
// media payload concurrently and waits for all of them; a failed upload
// degrades that one block's URL to null and the save continues. Phase two
// serializes the canvas and creates or updates the note. A brand-new note
// adopts the server-assigned identity so later saves update in place.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settleStagedMedia(ctx)

	note := &models.Note{
		ID:         s.noteID,
		Title:      s.title,
		CategoryID: s.categoryID,
		Data:       models.NoteData{Elements: Serialize(s.canvas)},
	}

	var (
		saved *models.Note
		err   error
	)
	if s.noteID.IsZero() {
		note.ID = models.NewNoteID()
		saved, err = s.api.CreateNote(ctx, note)
	} else {
		saved, err = s.api.UpdateNote(ctx, note)
	}
	if err != nil {
		return fmt.Errorf("saving note: %w", err)
	}

	s.noteID = saved.ID
	s.dirty = false
	s.log.Info().Str("note_id", s.noteID.String()).Msg("note saved")
	return nil
}

// settleStagedMedia uploads every staged payload referenced by a block,
// joining the uploads before returning. Each block ends up with either a
// permanent URL or an empty slot; no staged URL survives into the
// serialized document.
func (s *Session) settleStagedMedia(ctx context.Context) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []uploadResult
	)
	for _, b := range s.canvas.Blocks() {
		if b.Media == nil || !b.Media.Staged() {
			continue
		}
		entry, ok := s.staging.Resolve(b.Media.TempID)
		if !ok {
			// A staged URL with no backing payload cannot be uploaded,
			// which happens after a draft restore. Degrade it now.
			results = append(results, uploadResult{block: b})
			continue
		}
		wg.Add(1)
		go func(b *Block, entry *StagedMedia) {
			defer wg.Done()
			url, err := s.api.UploadImage(ctx, s.noteID, entry.Filename, entry.MIME, entry.Data)
			mu.Lock()
			results = append(results, uploadResult{block: b, url: url, err: err})
			mu.Unlock()
		}(b, entry)
	}
	wg.Wait()

	for _, r := range results {
		tempID := r.block.Media.TempID
		if r.err != nil {
			s.log.Warn().Err(r.err).Str("block_id", r.block.ID).Msg("media upload failed, saving block without media")
		}
		if r.err != nil || r.url == "" {
			r.block.Media.URL = ""
		} else {
			r.block.Media.URL = r.url
		}
		r.block.Media.TempID = ""
		if tempID != "" {
			s.staging.Discard(tempID)
		}
	}
}

// Load replaces the session contents with a stored note. Loading over
// unsaved changes asks first. A failed or empty fetch leaves the session
// exactly as it was.
func (s *Session) Load(ctx context.Context, id models.NoteID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty && !s.confirm("Load this note? Unsaved changes will be lost.") {
		return ErrConfirmDeclined
	}

	note, err := s.api.GetNote(ctx, id)
	if err != nil {
		return fmt.Errorf("loading note %s: %w", id, err)
	}
	if note == nil {
		return ErrNoteNotFound
	}

	s.canvas = Deserialize(note.Data.Elements)
	s.rebuildDrag()
	s.staging.Clear()
	s.noteID = note.ID
	s.title = note.Title
	s.categoryID = note.CategoryID
	s.dirty = false
	s.focusedID = ""
	return nil
}

// Clear empties the editor after confirmation: title, note identity, and
// canvas reset together so a following save creates a new note.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.confirm("Clear the editor? This removes every block.") {
		return ErrConfirmDeclined
	}
	s.reset()
	return nil
}

// Delete removes the current note on the server after confirmation, then
// resets the editor.
func (s *Session) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.noteID.IsZero() {
		return ErrNoCurrentNote
	}
	if !s.confirm("Delete this note permanently?") {
		return ErrConfirmDeclined
	}
	if err := s.api.DeleteNote(ctx, s.noteID); err != nil {
		return fmt.Errorf("deleting note %s: %w", s.noteID, err)
	}
	s.reset()
	return nil
}

// ApplyTemplate seeds the editor with a template's blocks. The result has
// no note identity, so saving creates a new note.
func (s *Session) ApplyTemplate(t *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty && !s.confirm("Apply this template? Unsaved changes will be lost.") {
		return ErrConfirmDeclined
	}

	s.canvas = Deserialize(t.Data.Elements)
	s.rebuildDrag()
	s.staging.Clear()
	s.noteID = models.NoteID{}
	s.title = t.Title
	s.categoryID = nil
	s.dirty = true
	s.focusedID = ""
	return nil
}

// Categories returns the category list, fetching it from the server on
// first use only. A fetch failure degrades to an empty list with a logged
// notice rather than blocking the editor.
func (s *Session) Categories(ctx context.Context) []models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.categoriesLoaded {
		list, err := s.api.ListCategories(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("category fetch failed, showing none")
			return nil
		}
		s.categories = list
		s.categoriesLoaded = true
	}
	return s.categories
}

func (s *Session) reset() {
	s.canvas = NewCanvas()
	s.rebuildDrag()
	s.staging.Clear()
	s.noteID = models.NoteID{}
	s.title = ""
	s.categoryID = nil
	s.dirty = false
	s.focusedID = ""
}

package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasnote/canvasnote/pkg/models"
)

// fakeAPI is an in-memory stand-in for the HTTP client.
type fakeAPI struct {
	mu         sync.Mutex
	notes      map[models.NoteID]*models.Note
	categories []models.Category

	uploadCount   int
	failUploads   bool
	categoryErr   error
	categoryCalls int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{notes: make(map[models.NoteID]*models.Note)}
}

func (f *fakeAPI) CreateNote(_ context.Context, note *models.Note) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *note
	if stored.ID.IsZero() {
		stored.ID = models.NewNoteID()
	}
	f.notes[stored.ID] = &stored
	return &stored, nil
}

func (f *fakeAPI) UpdateNote(_ context.Context, note *models.Note) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.notes[note.ID]; !ok {
		return nil, fmt.Errorf("note %s not found", note.ID)
	}
	stored := *note
	f.notes[note.ID] = &stored
	return &stored, nil
}

func (f *fakeAPI) GetNote(_ context.Context, id models.NoteID) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	note, ok := f.notes[id]
	if !ok {
		return nil, nil
	}
	copied := *note
	return &copied, nil
}

func (f *fakeAPI) DeleteNote(_ context.Context, id models.NoteID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.notes, id)
	return nil
}

func (f *fakeAPI) ListCategories(_ context.Context) ([]models.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categoryCalls++
	if f.categoryErr != nil {
		return nil, f.categoryErr
	}
	return f.categories, nil
}

func (f *fakeAPI) UploadImage(_ context.Context, _ models.NoteID, filename, _ string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCount++
	if f.failUploads {
		return "", errors.New("upload rejected")
	}
	return "https://cdn.example.com/" + filename, nil
}

func yes(string) bool { return true }
func no(string) bool  { return false }

func newTestSession(api API, confirm Confirmer) *Session {
	return NewSession(api, confirm, zerolog.Nop())
}

func TestSessionAddBlockRequestsFocus(t *testing.T) {
	s := newTestSession(newFakeAPI(), yes)

	b := s.AddBlock(models.BlockHeading)
	assert.Equal(t, b.ID, s.FocusedBlockID())
	assert.True(t, s.Dirty())
	assert.Equal(t, 1, s.Canvas().Len())
}

func TestSessionDragInsertMarksDirtyAndFocuses(t *testing.T) {
	s := newTestSession(newFakeAPI(), no)
	require.False(t, s.Dirty())

	b := s.Drag().TapInsert(models.BlockHeading)
	assert.True(t, s.Dirty())
	assert.Equal(t, b.ID, s.FocusedBlockID())

	// the unsaved-changes gate covers drag-created blocks too
	err := s.Load(context.Background(), models.NewNoteID())
	assert.ErrorIs(t, err, ErrConfirmDeclined)
	assert.Equal(t, 1, s.Canvas().Len())
}

func TestSessionDragDropMarksDirtyAndFocuses(t *testing.T) {
	api := newFakeAPI()
	s := newTestSession(api, yes)
	ctx := context.Background()

	first := s.AddBlock(models.BlockHeading)
	require.NoError(t, s.Save(ctx))
	require.False(t, s.Dirty())

	s.Drag().StartNew(models.BlockText)
	b, err := s.Drag().DropOn(first.ID)
	require.NoError(t, err)
	assert.True(t, s.Dirty())
	assert.Equal(t, b.ID, s.FocusedBlockID())
}

func TestSessionDragReorderMarksDirty(t *testing.T) {
	api := newFakeAPI()
	s := newTestSession(api, yes)
	ctx := context.Background()

	a := s.AddBlock(models.BlockHeading)
	b := s.AddBlock(models.BlockText)
	require.NoError(t, s.Save(ctx))
	require.False(t, s.Dirty())

	require.NoError(t, s.Drag().StartExisting(b.ID))
	_, err := s.Drag().DropOn(a.ID)
	require.NoError(t, err)
	assert.True(t, s.Dirty())
}

func TestSessionDragObservedAfterLoad(t *testing.T) {
	// Load swaps in a fresh drag engine; it must stay wired to the session.
	api := newFakeAPI()
	seed := &models.Note{ID: models.NewNoteID(), Title: "stored"}
	api.notes[seed.ID] = seed

	s := newTestSession(api, yes)
	require.NoError(t, s.Load(context.Background(), seed.ID))
	require.False(t, s.Dirty())

	s.Drag().TapInsert(models.BlockText)
	assert.True(t, s.Dirty())
}

func TestSessionRemoveBlockDiscardsStagedMedia(t *testing.T) {
	s := newTestSession(newFakeAPI(), yes)

	b := s.AddBlock(models.BlockImage)
	entry, err := s.StageMedia(b, []byte("bytes"), "a.png", "image/png")
	require.NoError(t, err)

	require.True(t, s.RemoveBlock(b.ID))
	_, ok := s.Staging().Resolve(entry.TempID)
	assert.False(t, ok)
	assert.Empty(t, s.FocusedBlockID())
}

func TestSessionSaveCreatesThenUpdates(t *testing.T) {
	api := newFakeAPI()
	s := newTestSession(api, yes)
	ctx := context.Background()

	s.SetTitle("My note")
	s.AddBlock(models.BlockHeading)

	require.NoError(t, s.Save(ctx))
	firstID := s.NoteID()
	assert.False(t, firstID.IsZero())
	assert.False(t, s.Dirty())
	assert.Len(t, api.notes, 1)

	s.AddBlock(models.BlockText)
	require.NoError(t, s.Save(ctx))
	assert.Equal(t, firstID, s.NoteID())
	assert.Len(t, api.notes, 1)
	assert.Len(t, api.notes[firstID].Data.Elements, 2)
}

func TestSessionSaveUploadsStagedMedia(t *testing.T) {
	api := newFakeAPI()
	s := newTestSession(api, yes)
	ctx := context.Background()

	b1 := s.AddBlock(models.BlockImage)
	b2 := s.AddBlock(models.BlockVoice)
	_, err := s.StageMedia(b1, []byte("img"), "a.png", "image/png")
	require.NoError(t, err)
	_, err = s.StageMedia(b2, []byte("rec"), "rec.webm", "audio/webm")
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx))

	assert.Equal(t, 2, api.uploadCount)
	assert.Equal(t, "https://cdn.example.com/a.png", b1.Media.URL)
	assert.Equal(t, "https://cdn.example.com/rec.webm", b2.Media.URL)
	assert.Empty(t, b1.Media.TempID)
	assert.Empty(t, s.Staging().Pending())

	saved := api.notes[s.NoteID()]
	require.NotNil(t, saved.Data.Elements[0].Media.URL)
	assert.Equal(t, "https://cdn.example.com/a.png", *saved.Data.Elements[0].Media.URL)
	assert.Empty(t, saved.Data.Elements[0].Media.TempID)
}

func TestSessionSaveUploadFailureDegradesBlock(t *testing.T) {
	api := newFakeAPI()
	api.failUploads = true
	s := newTestSession(api, yes)
	ctx := context.Background()

	b := s.AddBlock(models.BlockImage)
	_, err := s.StageMedia(b, []byte("img"), "a.png", "image/png")
	require.NoError(t, err)
	s.AddBlock(models.BlockText)

	// the save itself still succeeds
	require.NoError(t, s.Save(ctx))

	assert.True(t, b.Media.Empty())
	assert.Empty(t, s.Staging().Pending())

	saved := api.notes[s.NoteID()]
	assert.Nil(t, saved.Data.Elements[0].Media.URL)
}

func TestSessionSaveStagedURLWithoutPayloadDegrades(t *testing.T) {
	// A draft restore brings back staged URLs whose bytes are gone.
	api := newFakeAPI()
	s := newTestSession(api, yes)

	b := s.AddBlock(models.BlockImage)
	b.Media.URL = "blob:orphaned"
	b.Media.TempID = "orphaned"

	require.NoError(t, s.Save(context.Background()))
	assert.True(t, b.Media.Empty())
	assert.Equal(t, 0, api.uploadCount)
}

func TestSessionLoadReplacesState(t *testing.T) {
	api := newFakeAPI()
	seed := &models.Note{
		ID:    models.NewNoteID(),
		Title: "Stored",
		Data: models.NoteData{Elements: []models.BlockData{
			{Type: models.BlockHeading, Content: "h"},
		}},
	}
	api.notes[seed.ID] = seed

	s := newTestSession(api, yes)
	s.AddBlock(models.BlockText)

	require.NoError(t, s.Load(context.Background(), seed.ID))
	assert.Equal(t, seed.ID, s.NoteID())
	assert.Equal(t, "Stored", s.Title())
	assert.Equal(t, 1, s.Canvas().Len())
	assert.False(t, s.Dirty())
}

func TestSessionLoadMissingNoteLeavesSessionUntouched(t *testing.T) {
	s := newTestSession(newFakeAPI(), yes)
	s.SetTitle("work in progress")
	s.AddBlock(models.BlockText)

	err := s.Load(context.Background(), models.NewNoteID())
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.Equal(t, "work in progress", s.Title())
	assert.Equal(t, 1, s.Canvas().Len())
	assert.True(t, s.Dirty())
}

func TestSessionLoadOverDirtyNeedsConfirmation(t *testing.T) {
	api := newFakeAPI()
	seed := &models.Note{ID: models.NewNoteID(), Title: "other"}
	api.notes[seed.ID] = seed

	s := newTestSession(api, no)
	s.AddBlock(models.BlockText)

	err := s.Load(context.Background(), seed.ID)
	assert.ErrorIs(t, err, ErrConfirmDeclined)
	assert.Equal(t, 1, s.Canvas().Len())
}

func TestSessionClearResetsEverythingAtomically(t *testing.T) {
	api := newFakeAPI()
	s := newTestSession(api, yes)
	ctx := context.Background()

	s.SetTitle("t")
	s.AddBlock(models.BlockHeading)
	require.NoError(t, s.Save(ctx))
	require.False(t, s.NoteID().IsZero())

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Title())
	assert.True(t, s.NoteID().IsZero())
	assert.Equal(t, 0, s.Canvas().Len())
	assert.False(t, s.Dirty())

	// a save after clear creates a fresh note
	s.AddBlock(models.BlockText)
	require.NoError(t, s.Save(ctx))
	assert.Len(t, api.notes, 2)
}

func TestSessionClearDeclined(t *testing.T) {
	s := newTestSession(newFakeAPI(), no)
	s.AddBlock(models.BlockText)

	assert.ErrorIs(t, s.Clear(), ErrConfirmDeclined)
	assert.Equal(t, 1, s.Canvas().Len())
}

func TestSessionDelete(t *testing.T) {
	api := newFakeAPI()
	s := newTestSession(api, yes)
	ctx := context.Background()

	assert.ErrorIs(t, s.Delete(ctx), ErrNoCurrentNote)

	s.AddBlock(models.BlockText)
	require.NoError(t, s.Save(ctx))
	require.NoError(t, s.Delete(ctx))

	assert.Empty(t, api.notes)
	assert.True(t, s.NoteID().IsZero())
	assert.Equal(t, 0, s.Canvas().Len())
}

func TestSessionCategoriesFetchedLazily(t *testing.T) {
	api := newFakeAPI()
	api.categories = []models.Category{{ID: models.NewCategoryID(), Name: "Work"}}
	s := newTestSession(api, yes)
	ctx := context.Background()

	assert.Equal(t, 0, api.categoryCalls)
	got := s.Categories(ctx)
	require.Len(t, got, 1)
	s.Categories(ctx)
	s.Categories(ctx)
	assert.Equal(t, 1, api.categoryCalls)
}

func TestSessionCategoriesFetchFailureDegrades(t *testing.T) {
	api := newFakeAPI()
	api.categoryErr = errors.New("boom")
	s := newTestSession(api, yes)

	assert.Empty(t, s.Categories(context.Background()))

	// recovers once the server does
	api.mu.Lock()
	api.categoryErr = nil
	api.categories = []models.Category{{ID: models.NewCategoryID(), Name: "Home"}}
	api.mu.Unlock()
	assert.Len(t, s.Categories(context.Background()), 1)
}

func TestSessionApplyTemplate(t *testing.T) {
	s := newTestSession(newFakeAPI(), yes)

	tpl := &models.Template{
		ID:    models.NewTemplateID(),
		Title: "Meeting notes",
		Data: models.NoteData{Elements: []models.BlockData{
			{Type: models.BlockHeading, Content: "Agenda"},
			{Type: models.BlockChecklist, Checklist: &models.ChecklistData{Items: []models.ChecklistItem{{Text: "intro"}}}},
		}},
	}
	require.NoError(t, s.ApplyTemplate(tpl))

	assert.True(t, s.NoteID().IsZero())
	assert.Equal(t, "Meeting notes", s.Title())
	assert.Equal(t, 2, s.Canvas().Len())
	assert.True(t, s.Dirty())
}

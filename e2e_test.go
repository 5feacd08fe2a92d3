// End-to-end tests driving the full stack: virtual editors talking to the
// real HTTP server over a real (in-memory) store.
package canvasnote_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasnote/canvasnote/pkg/canvasnote"
	"github.com/canvasnote/canvasnote/pkg/canvasnotetesting"
	"github.com/canvasnote/canvasnote/pkg/client"
	"github.com/canvasnote/canvasnote/pkg/editor"
	"github.com/canvasnote/canvasnote/pkg/models"
	"github.com/canvasnote/canvasnote/pkg/store/sqlite"
)

func startServer(t *testing.T) string {
	t.Helper()

	s, err := sqlite.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))

	config := canvasnote.DefaultConfig()
	config.MediaDir = t.TempDir()
	app := canvasnote.NewWithStore(s, config)

	ts := httptest.NewServer(app.Router())
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestEndToEndCreateSaveLoad(t *testing.T) {
	baseURL := startServer(t)
	ctx := context.Background()

	ve := canvasnotetesting.NewVirtualEditor(1, baseURL)
	ve.ComposeNote("e2e note")

	imgBlock, err := ve.StageImage()
	require.NoError(t, err)
	require.True(t, imgBlock.Media.Staged())

	require.NoError(t, ve.Session.Save(ctx))
	noteID := ve.Session.NoteID()
	require.False(t, noteID.IsZero())

	// the staged URL was replaced by a served media URL
	assert.False(t, imgBlock.Media.Staged())
	assert.Contains(t, imgBlock.Media.URL, "/media/notes/")

	// a fresh session loads the same document
	c := client.NewClient(baseURL)
	fresh := editor.NewSession(c, func(string) bool { return true }, zerolog.Nop())
	require.NoError(t, fresh.Load(ctx, noteID))
	assert.Equal(t, "e2e note", fresh.Title())

	original := editor.Serialize(ve.Session.Canvas())
	loaded := editor.Serialize(fresh.Canvas())
	assert.Equal(t, original, loaded)
}

func TestEndToEndScenario(t *testing.T) {
	baseURL := startServer(t)
	ve := canvasnotetesting.NewVirtualEditor(7, baseURL)
	require.NoError(t, ve.RunScenario(context.Background()))
}

func TestEndToEndConcurrentEditors(t *testing.T) {
	baseURL := startServer(t)
	ctx := context.Background()

	const editors = 8
	var wg sync.WaitGroup
	errs := make(chan error, editors)
	for i := 0; i < editors; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ve := canvasnotetesting.NewVirtualEditor(i, baseURL)
			ve.ComposeNote(fmt.Sprintf("concurrent note %d", i))
			if err := ve.SaveAndReload(ctx); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	c := client.NewClient(baseURL)
	summaries, err := c.ListNotes(ctx, client.ListNotesOptions{})
	require.NoError(t, err)
	assert.Len(t, summaries, editors)
}

func TestEndToEndLoadMissingNote(t *testing.T) {
	baseURL := startServer(t)

	ve := canvasnotetesting.NewVirtualEditor(1, baseURL)
	ve.ComposeNote("untouched")

	err := ve.Session.Load(context.Background(), models.NewNoteID())
	assert.ErrorIs(t, err, editor.ErrNoteNotFound)
	assert.Equal(t, "untouched", ve.Session.Title())
}

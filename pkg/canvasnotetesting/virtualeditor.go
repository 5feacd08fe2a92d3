// Package canvasnotetesting provides a virtual editor for end-to-end tests.
//
// A [VirtualEditor] couples the typed API client with a real editing
// session, so a test can drive the same code path a user would: compose
// blocks on the canvas, stage media, save through the HTTP API, and reload
// what the server stored. Several virtual editors can run concurrently
// against one server to shake out races in the save protocol.
package canvasnotetesting

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/canvasnote/canvasnote/pkg/client"
	"github.com/canvasnote/canvasnote/pkg/editor"
	"github.com/canvasnote/canvasnote/pkg/models"
)

// VirtualEditor drives one editing session against a live server.
type VirtualEditor struct {
	Index   int
	Client  *client.Client
	Session *editor.Session
	RNG     *rand.Rand
}

// NewVirtualEditor creates a virtual editor with a deterministic RNG seeded
// by index. All confirmation prompts answer yes.
func NewVirtualEditor(index int, baseURL string) *VirtualEditor {
	c := client.NewClient(baseURL)
	return &VirtualEditor{
		Index:   index,
		Client:  c,
		Session: editor.NewSession(c, func(string) bool { return true }, zerolog.Nop()),
		RNG:     rand.New(rand.NewSource(int64(index))),
	}
}

// ComposeNote fills the canvas with one block of every kind, with the media
// block staged for upload.
func (ve *VirtualEditor) ComposeNote(title string) {
	ve.Session.SetTitle(title)

	heading := ve.Session.AddBlock(models.BlockHeading)
	heading.Content = fmt.Sprintf("Note by editor %d", ve.Index)

	text := ve.Session.AddBlock(models.BlockText)
	text.Content = "Some body text."

	code := ve.Session.AddBlock(models.BlockCode)
	code.Content = "fmt.Println(\"hi\")"

	ve.Session.AddBlock(models.BlockDivider)

	check := ve.Session.AddBlock(models.BlockChecklist)
	check.Checklist.SetText(0, "first task")
	check.Checklist.AddItem()
	check.Checklist.SetText(1, "second task")
	check.Checklist.Toggle(1)

	table := ve.Session.AddBlock(models.BlockTable)
	table.Table.AddColumn()
	table.Table.AddRow()
	table.Table.SetCell(0, 0, "alpha")
	table.Table.SetCell(1, 1, "beta")
}

// StageImage attaches a small deterministic payload to a fresh image block.
func (ve *VirtualEditor) StageImage() (*editor.Block, error) {
	b := ve.Session.AddBlock(models.BlockImage)
	payload := make([]byte, 64)
	ve.RNG.Read(payload)
	_, err := ve.Session.StageMedia(b, payload, fmt.Sprintf("editor-%d.png", ve.Index), "image/png")
	return b, err
}

// SaveAndReload saves the session, then loads the stored note back and
// checks the reloaded canvas matches what was saved.
func (ve *VirtualEditor) SaveAndReload(ctx context.Context) error {
	if err := ve.Session.Save(ctx); err != nil {
		return fmt.Errorf("saving: %w", err)
	}
	id := ve.Session.NoteID()

	before := editor.Serialize(ve.Session.Canvas())
	if err := ve.Session.Load(ctx, id); err != nil {
		return fmt.Errorf("reloading: %w", err)
	}
	after := editor.Serialize(ve.Session.Canvas())

	if len(before) != len(after) {
		return fmt.Errorf("round trip changed block count: %d != %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Type != after[i].Type {
			return fmt.Errorf("round trip changed block %d type: %s != %s", i, before[i].Type, after[i].Type)
		}
	}
	return nil
}

// RunScenario is the standard end-to-end flow: compose, stage media, save,
// reload, verify the note is listed, then delete it.
func (ve *VirtualEditor) RunScenario(ctx context.Context) error {
	title := fmt.Sprintf("scenario note %d", ve.Index)
	ve.ComposeNote(title)
	if _, err := ve.StageImage(); err != nil {
		return err
	}
	if err := ve.SaveAndReload(ctx); err != nil {
		return err
	}

	summaries, err := ve.Client.ListNotes(ctx, client.ListNotesOptions{Search: title})
	if err != nil {
		return fmt.Errorf("listing notes: %w", err)
	}
	found := false
	for _, s := range summaries {
		if s.ID == ve.Session.NoteID() {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("saved note %s missing from history", ve.Session.NoteID())
	}

	return ve.Session.Delete(ctx)
}

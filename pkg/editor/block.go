package editor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/canvasnote/canvasnote/pkg/models"
)

// ChecklistPlaceholder is the ghost text a freshly added checklist item
// carries until the user types over it. The serializer maps an item whose
// text exactly equals this string back to empty, so the placeholder never
// reaches storage. A user who literally types "New item" loses it on save;
// that matches the shipped behavior and is covered by a test.
const ChecklistPlaceholder = "New item"

// Block is a live block on the canvas. It carries an editor-local ID that
// never leaves the session; the wire format has no per-block identity.
type Block struct {
	ID      string
	Type    models.BlockType
	Content string

	Checklist *Checklist
	Table     *Table
	Media     *Media
	Recorder  *Recorder

	editing bool
}

// NewBlock is the block factory. Every known type comes up with its default
// content so the user has something to overtype. Unknown types produce an
// empty shell rather than an error; the canvas must render whatever an older
// or newer revision stored.
func NewBlock(t models.BlockType) *Block {
	b := &Block{ID: uuid.NewString(), Type: t}
	switch t {
	case models.BlockHeading:
		b.Content = "Heading"
	case models.BlockText:
		b.Content = "Text..."
	case models.BlockCode:
		b.Content = "// Code"
	case models.BlockDivider:
		// no content
	case models.BlockChecklist:
		b.Checklist = &Checklist{Items: []ChecklistItem{{Text: "First item"}}}
	case models.BlockTable:
		b.Table = &Table{
			headers: []string{"Header 1"},
			rows:    [][]string{{"Data 1"}},
		}
	case models.BlockImage, models.BlockImgText:
		b.Media = &Media{}
	case models.BlockVoice:
		b.Media = &Media{}
		b.Recorder = NewRecorder()
	}
	return b
}

// Focus marks an editable region of the block as focused. While focused the
// block must not be draggable, otherwise text selection inside the region
// starts a drag. Returns the caret position, which is always forced to the
// end of the content.
func (b *Block) Focus() int {
	b.editing = true
	return utf8.RuneCountInString(b.Content)
}

// Blur restores draggability when the editable region loses focus.
func (b *Block) Blur() {
	b.editing = false
}

// Draggable reports whether the block may act as a drag source right now.
func (b *Block) Draggable() bool {
	return !b.editing
}

// ChecklistItem is one live checklist row.
type ChecklistItem struct {
	Text    string
	Checked bool
}

// Checklist is the live sub-model of a checklist block.
type Checklist struct {
	Items []ChecklistItem
}

// AddItem appends a new row carrying the placeholder text.
func (c *Checklist) AddItem() {
	c.Items = append(c.Items, ChecklistItem{Text: ChecklistPlaceholder})
}

func (c *Checklist) RemoveItem(i int) {
	if i < 0 || i >= len(c.Items) {
		return
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

func (c *Checklist) Toggle(i int) {
	if i < 0 || i >= len(c.Items) {
		return
	}
	c.Items[i].Checked = !c.Items[i].Checked
}

func (c *Checklist) SetText(i int, text string) {
	if i < 0 || i >= len(c.Items) {
		return
	}
	c.Items[i].Text = text
}

// Table is the live sub-model of a table block. The grid is rectangular at
// all times and never shrinks below one column and one row. Each structural
// op changes headers and rows together.
type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers []string, rows [][]string) *Table {
	t := &Table{headers: headers, rows: rows}
	if len(t.headers) == 0 {
		t.headers = []string{"Header 1"}
	}
	if len(t.rows) == 0 {
		t.rows = [][]string{make([]string, len(t.headers))}
	}
	// Square up ragged input so the invariant holds from the start.
	for i, row := range t.rows {
		for len(row) < len(t.headers) {
			row = append(row, "")
		}
		t.rows[i] = row[:len(t.headers)]
	}
	return t
}

func (t *Table) Headers() []string { return t.headers }
func (t *Table) Rows() [][]string  { return t.rows }
func (t *Table) Columns() int      { return len(t.headers) }

// AddColumn appends a column with a synthesized "Header N" label and an
// empty cell in every row.
func (t *Table) AddColumn() {
	t.headers = append(t.headers, fmt.Sprintf("Header %d", len(t.headers)+1))
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], "")
	}
}

// RemoveColumn drops the last column. Removing the only column is a silent
// no-op; a table never goes below 1x1.
func (t *Table) RemoveColumn() {
	if len(t.headers) <= 1 {
		return
	}
	t.headers = t.headers[:len(t.headers)-1]
	for i := range t.rows {
		t.rows[i] = t.rows[i][:len(t.rows[i])-1]
	}
}

// AddRow appends an empty row matching the current column count.
func (t *Table) AddRow() {
	t.rows = append(t.rows, make([]string, len(t.headers)))
}

// RemoveRow drops the last row, stopping at one.
func (t *Table) RemoveRow() {
	if len(t.rows) <= 1 {
		return
	}
	t.rows = t.rows[:len(t.rows)-1]
}

func (t *Table) SetHeader(col int, text string) error {
	if col < 0 || col >= len(t.headers) {
		return fmt.Errorf("header %d out of range", col)
	}
	t.headers[col] = text
	return nil
}

func (t *Table) SetCell(row, col int, text string) error {
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("row %d out of range", row)
	}
	if col < 0 || col >= len(t.headers) {
		return fmt.Errorf("column %d out of range", col)
	}
	t.rows[row][col] = text
	return nil
}

// Media is the live sub-model of an image, voice, or img-text block. An
// empty URL means the slot has no content yet. A data: or blob: URL means
// the content is staged locally and TempID names its staging entry. Any
// other URL is committed server-side media.
type Media struct {
	URL         string
	TempID      string
	Title       string
	Description string
}

// Staged reports whether the media currently points at local staged bytes.
func (m *Media) Staged() bool {
	return strings.HasPrefix(m.URL, "data:") || strings.HasPrefix(m.URL, "blob:")
}

// Empty reports whether the slot has no media at all.
func (m *Media) Empty() bool {
	return m.URL == ""
}

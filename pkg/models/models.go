package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NoteData is the document body: the ordered block list a note is made of.
// It is stored as a single JSON column in both backends.
type NoteData struct {
	Elements []BlockData `json:"elements"`
}

func (d NoteData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *NoteData) Scan(value any) error {
	if value == nil {
		*d = NoteData{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan type %T into NoteData", value)
	}
	return json.Unmarshal(raw, d)
}

func (NoteData) GormDataType() string { return "jsonb" }

// Note is a saved document.
type Note struct {
	ID           NoteID      `json:"id" gorm:"primaryKey;type:uuid"`
	Title        string      `json:"title"`
	CategoryID   *CategoryID `json:"category_id,omitempty" gorm:"type:uuid;index"`
	CategoryName string      `json:"category_name,omitempty" gorm:"-"`
	Data         NoteData    `json:"data" gorm:"type:jsonb"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NoteSummary is the list-endpoint projection of a note. The body is not
// included; history views only need the heading line.
type NoteSummary struct {
	ID           NoteID    `json:"id"`
	Title        string    `json:"title"`
	CategoryName string    `json:"category_name,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary projects a note into its list form.
func (n *Note) Summary() NoteSummary {
	return NoteSummary{
		ID:           n.ID,
		Title:        n.Title,
		CategoryName: n.CategoryName,
		UpdatedAt:    n.UpdatedAt,
	}
}

// Category groups notes in the history sidebar.
type Category struct {
	ID          CategoryID `json:"id" gorm:"primaryKey;type:uuid"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Color       string     `json:"color,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Template is a reusable note preset. Applying one seeds a fresh editing
// session with its elements without assigning note identity.
type Template struct {
	ID        TemplateID `json:"id" gorm:"primaryKey;type:uuid"`
	Title     string     `json:"title"`
	Data      NoteData   `json:"data" gorm:"type:jsonb"`
	IsPublic  bool       `json:"is_public"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Package store defines the persistence abstraction for canvasnote.
//
// The [Store] interface covers the three persisted entities (notes,
// categories, templates) and is implemented twice: by
// [github.com/canvasnote/canvasnote/pkg/store/postgres.PostgresStore] with
// GORM for server deployments, and by
// [github.com/canvasnote/canvasnote/pkg/store/sqlite.SQLiteStore] with an
// embedded pure-Go SQLite for single-binary and test setups.
//
// Get operations return (nil, nil) when the record does not exist; only
// infrastructure failures surface as errors. Handlers turn the nil case
// into a 404.
package store

import (
	"context"

	"github.com/canvasnote/canvasnote/pkg/models"
)

// NoteFilter narrows ListNotes. The zero value lists everything, newest
// first.
type NoteFilter struct {
	// CategoryID restricts to one category when set.
	CategoryID *models.CategoryID
	// Uncategorized restricts to notes with no category. Wins over
	// CategoryID; the two are never both set by the handlers.
	Uncategorized bool
	// Search matches case-insensitively against the note title and the
	// category name.
	Search string
}

// Store is the persistence interface for the note domain.
type Store interface {
	CreateNote(ctx context.Context, note *models.Note) error
	GetNote(ctx context.Context, id models.NoteID) (*models.Note, error)
	UpdateNote(ctx context.Context, note *models.Note) error
	DeleteNote(ctx context.Context, id models.NoteID) error
	// ListNotes returns matching notes ordered by update time descending,
	// with CategoryName resolved.
	ListNotes(ctx context.Context, filter NoteFilter) ([]*models.Note, error)

	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id models.CategoryID) (*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id models.CategoryID) error
	ListCategories(ctx context.Context) ([]*models.Category, error)

	CreateTemplate(ctx context.Context, template *models.Template) error
	GetTemplate(ctx context.Context, id models.TemplateID) (*models.Template, error)
	ListTemplates(ctx context.Context) ([]*models.Template, error)

	// Migrate creates or updates the schema. Safe to run repeatedly.
	Migrate(ctx context.Context) error
	Close() error
}

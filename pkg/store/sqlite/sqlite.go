// Package sqlite implements [github.com/canvasnote/canvasnote/pkg/store.Store]
// on an embedded SQLite database via the pure-Go modernc.org/sqlite driver.
//
// This backend needs no external service, which makes it the default for
// single-binary deployments and the store the HTTP tests run against
// (path ":memory:"). Note bodies live in a TEXT column through the same
// Valuer/Scanner pair the postgres backend uses for jsonb.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/canvasnote/canvasnote/pkg/models"
	"github.com/canvasnote/canvasnote/pkg/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS categories (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
	data        TEXT NOT NULL DEFAULT '{}',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_category_id ON notes(category_id);
CREATE INDEX IF NOT EXISTS idx_notes_updated_at ON notes(updated_at);

CREATE TABLE IF NOT EXISTS templates (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	data       TEXT NOT NULL DEFAULT '{}',
	is_public  INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// SQLiteStore implements the Store interface on database/sql.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path. The special path
// ":memory:" yields a private in-memory database.
func NewSQLiteStore(path string) (store.Store, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
		// WAL for concurrency, busy timeout so parallel handlers queue
		// instead of failing with SQLITE_BUSY.
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection of an in-memory DSN gets its own
		// database; pin the pool to one connection.
		db.SetMaxOpenConns(1)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Note operations

func (s *SQLiteStore) CreateNote(ctx context.Context, note *models.Note) error {
	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, title, category_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID, note.Title, categoryValue(note.CategoryID), note.Data, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting note: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetNote(ctx context.Context, id models.NoteID) (*models.Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT n.id, n.title, n.category_id, n.data, n.created_at, n.updated_at, COALESCE(c.name, '')
		 FROM notes n LEFT JOIN categories c ON c.id = n.category_id
		 WHERE n.id = ?`, id)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return note, err
}

func (s *SQLiteStore) UpdateNote(ctx context.Context, note *models.Note) error {
	note.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, category_id = ?, data = ?, updated_at = ? WHERE id = ?`,
		note.Title, categoryValue(note.CategoryID), note.Data, note.UpdatedAt, note.ID)
	if err != nil {
		return fmt.Errorf("updating note: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("note %s not found", note.ID)
	}
	return nil
}

func (s *SQLiteStore) DeleteNote(ctx context.Context, id models.NoteID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) ListNotes(ctx context.Context, filter store.NoteFilter) ([]*models.Note, error) {
	query := `SELECT n.id, n.title, n.category_id, n.data, n.created_at, n.updated_at, COALESCE(c.name, '')
	          FROM notes n LEFT JOIN categories c ON c.id = n.category_id`
	var (
		where []string
		args  []any
	)
	switch {
	case filter.Uncategorized:
		where = append(where, "n.category_id IS NULL")
	case filter.CategoryID != nil:
		where = append(where, "n.category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.Search != "" {
		where = append(where, "(LOWER(n.title) LIKE ? OR LOWER(COALESCE(c.name, '')) LIKE ?)")
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, pattern, pattern)
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY n.updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// Category operations

func (s *SQLiteStore) CreateCategory(ctx context.Context, category *models.Category) error {
	now := time.Now().UTC()
	if category.CreatedAt.IsZero() {
		category.CreatedAt = now
	}
	category.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, description, color, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		category.ID, category.Name, category.Description, category.Color, category.CreatedAt, category.UpdatedAt)
	return err
}

func (s *SQLiteStore) GetCategory(ctx context.Context, id models.CategoryID) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, color, created_at, updated_at FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) UpdateCategory(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ?, color = ?, updated_at = ? WHERE id = ?`,
		category.Name, category.Description, category.Color, category.UpdatedAt, category.ID)
	return err
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, id models.CategoryID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE notes SET category_id = NULL WHERE category_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, color, created_at, updated_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// Template operations

func (s *SQLiteStore) CreateTemplate(ctx context.Context, template *models.Template) error {
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO templates (id, title, data, is_public, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		template.ID, template.Title, template.Data, template.IsPublic, template.CreatedAt, template.UpdatedAt)
	return err
}

func (s *SQLiteStore) GetTemplate(ctx context.Context, id models.TemplateID) (*models.Template, error) {
	var t models.Template
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, data, is_public, created_at, updated_at FROM templates WHERE id = ?`, id).
		Scan(&t.ID, &t.Title, &t.Data, &t.IsPublic, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]*models.Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, data, is_public, created_at, updated_at FROM templates ORDER BY title ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*models.Template
	for rows.Next() {
		var t models.Template
		if err := rows.Scan(&t.ID, &t.Title, &t.Data, &t.IsPublic, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, &t)
	}
	return templates, rows.Err()
}

// Helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	var (
		note       models.Note
		categoryID models.CategoryID
	)
	err := row.Scan(&note.ID, &note.Title, &categoryID, &note.Data, &note.CreatedAt, &note.UpdatedAt, &note.CategoryName)
	if err != nil {
		return nil, err
	}
	if !categoryID.IsZero() {
		note.CategoryID = &categoryID
	}
	return &note, nil
}

// categoryValue maps a nil category pointer to SQL NULL.
func categoryValue(id *models.CategoryID) any {
	if id == nil {
		return nil
	}
	return *id
}

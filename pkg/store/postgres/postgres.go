// Package postgres implements [github.com/canvasnote/canvasnote/pkg/store.Store]
// on PostgreSQL using GORM.
//
// GORM handles SQL generation, timestamps, and schema migration through
// AutoMigrate. Note bodies are stored as a single jsonb column via the
// driver.Valuer/sql.Scanner implementation on
// [github.com/canvasnote/canvasnote/pkg/models.NoteData]; the server never
// queries inside block data, so a document column beats a blocks table here.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/canvasnote/canvasnote/pkg/models"
	"github.com/canvasnote/canvasnote/pkg/store"
)

// PostgresStore implements the Store interface using PostgreSQL with GORM.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to PostgreSQL with the given DSN.
func NewPostgresStore(dsn string) (store.Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) getDB() *gorm.DB {
	return s.db
}

// Migrate creates missing tables, columns, and indexes for all models.
// AutoMigrate only adds schema elements; it never drops data.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.Category{},
		&models.Note{},
		&models.Template{},
	)
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Note operations

func (s *PostgresStore) CreateNote(ctx context.Context, note *models.Note) error {
	return s.getDB().WithContext(ctx).Create(note).Error
}

func (s *PostgresStore) GetNote(ctx context.Context, id models.NoteID) (*models.Note, error) {
	var note models.Note
	err := s.getDB().WithContext(ctx).First(&note, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := s.fillCategoryNames(ctx, []*models.Note{&note}); err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *PostgresStore) UpdateNote(ctx context.Context, note *models.Note) error {
	return s.getDB().WithContext(ctx).Save(note).Error
}

func (s *PostgresStore) DeleteNote(ctx context.Context, id models.NoteID) error {
	return s.getDB().WithContext(ctx).Delete(&models.Note{}, "id = ?", id).Error
}

func (s *PostgresStore) ListNotes(ctx context.Context, filter store.NoteFilter) ([]*models.Note, error) {
	q := s.getDB().WithContext(ctx).Model(&models.Note{})

	switch {
	case filter.Uncategorized:
		q = q.Where("category_id IS NULL")
	case filter.CategoryID != nil:
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		sub := s.getDB().Model(&models.Category{}).Select("id").Where("name ILIKE ?", pattern)
		q = q.Where("title ILIKE ? OR category_id IN (?)", pattern, sub)
	}

	var notes []*models.Note
	if err := q.Order("updated_at DESC").Find(&notes).Error; err != nil {
		return nil, err
	}
	if err := s.fillCategoryNames(ctx, notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// fillCategoryNames resolves CategoryName for the given notes in one query.
// The field is not a database column; the wire format carries the name so
// history views render without a second fetch.
func (s *PostgresStore) fillCategoryNames(ctx context.Context, notes []*models.Note) error {
	ids := make([]models.CategoryID, 0, len(notes))
	seen := make(map[models.CategoryID]bool)
	for _, n := range notes {
		if n.CategoryID != nil && !seen[*n.CategoryID] {
			seen[*n.CategoryID] = true
			ids = append(ids, *n.CategoryID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var categories []models.Category
	if err := s.getDB().WithContext(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return err
	}
	names := make(map[models.CategoryID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	for _, n := range notes {
		if n.CategoryID != nil {
			n.CategoryName = names[*n.CategoryID]
		}
	}
	return nil
}

// Category operations

func (s *PostgresStore) CreateCategory(ctx context.Context, category *models.Category) error {
	return s.getDB().WithContext(ctx).Create(category).Error
}

func (s *PostgresStore) GetCategory(ctx context.Context, id models.CategoryID) (*models.Category, error) {
	var category models.Category
	err := s.getDB().WithContext(ctx).First(&category, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, category *models.Category) error {
	return s.getDB().WithContext(ctx).Save(category).Error
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id models.CategoryID) error {
	return s.getDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Note{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, "id = ?", id).Error
	})
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := s.getDB().WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

// Template operations

func (s *PostgresStore) CreateTemplate(ctx context.Context, template *models.Template) error {
	return s.getDB().WithContext(ctx).Create(template).Error
}

func (s *PostgresStore) GetTemplate(ctx context.Context, id models.TemplateID) (*models.Template, error) {
	var template models.Template
	err := s.getDB().WithContext(ctx).First(&template, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &template, nil
}

func (s *PostgresStore) ListTemplates(ctx context.Context) ([]*models.Template, error) {
	var templates []*models.Template
	err := s.getDB().WithContext(ctx).Order("title ASC").Find(&templates).Error
	return templates, err
}

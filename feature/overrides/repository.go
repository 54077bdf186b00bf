package overrides

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when no override exists for a key.
var ErrNotFound = errors.New("override not found")

// Repository persists overrides with GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository on db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the overrides table.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&Override{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", TableName, err)
	}
	return nil
}

// List returns every override ordered by key.
func (r *Repository) List(ctx context.Context) ([]Override, error) {
	var rows []Override
	if err := r.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	return rows, nil
}

// Get returns the override for key.
func (r *Repository) Get(ctx context.Context, key string) (Override, error) {
	var row Override
	err := r.db.WithContext(ctx).Where("name = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Override{}, ErrNotFound
	}
	if err != nil {
		return Override{}, fmt.Errorf("failed to get override %s: %w", key, err)
	}
	return row, nil
}

// Set creates or replaces the override for key.
func (r *Repository) Set(ctx context.Context, key, value string) (Override, error) {
	row := Override{Name: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return Override{}, fmt.Errorf("failed to set override %s: %w", key, err)
	}
	return row, nil
}

// Delete removes the override for key.
func (r *Repository) Delete(ctx context.Context, key string) error {
	res := r.db.WithContext(ctx).Where("name = ?", key).Delete(&Override{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete override %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBatch removes the overrides for keys in one statement.
func (r *Repository) DeleteBatch(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("name IN ?", keys).Delete(&Override{}).Error; err != nil {
		return fmt.Errorf("failed to delete %d overrides: %w", len(keys), err)
	}
	return nil
}

// Map returns the overrides as a key/value mapping.
func (r *Repository) Map(ctx context.Context) (map[string]string, error) {
	rows, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(rows))
	for _, row := range rows {
		m[row.Name] = row.Value
	}
	return m, nil
}

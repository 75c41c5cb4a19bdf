package repository

import (
	"github.com/agnosto/boosty-archiver/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ArchiveRepository defines the interface for ledger operations
type ArchiveRepository interface {
	Exists(key string) (bool, error)
	Create(key string) error
}

// GormArchiveRepository implements ArchiveRepository using GORM
type GormArchiveRepository struct {
	db *gorm.DB
}

// NewArchiveRepository creates a new archive repository
func NewArchiveRepository(db *gorm.DB) ArchiveRepository {
	return &GormArchiveRepository{db: db}
}

// Exists checks if an identity key is recorded in the ledger
func (r *GormArchiveRepository) Exists(key string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ArchiveEntry{}).Where("key = ?", key).Count(&count).Error
	return count > 0, err
}

// Create records an identity key; inserting a key that is already present
// is a no-op, not an error.
func (r *GormArchiveRepository) Create(key string) error {
	entry := &models.ArchiveEntry{Key: key}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(entry).Error
}

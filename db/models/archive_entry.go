package models

import (
	"time"
)

// ArchiveEntry records one fully downloaded asset by its identity key.
// A key is present if and only if the asset's bytes were completely written
// to disk in this or a prior run.
type ArchiveEntry struct {
	ID        uint   `gorm:"primaryKey"`
	Key       string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

// TableName overrides the table name
func (ArchiveEntry) TableName() string {
	return "archive_entries"
}

package service

import (
	"github.com/agnosto/boosty-archiver/db/repository"
	"github.com/agnosto/boosty-archiver/logger"
)

// ArchiveService is the dedup ledger used by the downloader.
type ArchiveService struct {
	repo repository.ArchiveRepository
}

// NewArchiveService creates a new archive service
func NewArchiveService(repo repository.ArchiveRepository) *ArchiveService {
	return &ArchiveService{repo: repo}
}

// Exists reports whether an identity key was already archived. A backing
// store error is treated as "not recorded": re-downloading an asset is
// preferable to silently losing it.
func (s *ArchiveService) Exists(key string) bool {
	exists, err := s.repo.Exists(key)
	if err != nil {
		logger.Logger.Printf("Error checking ledger for %s: %v", key, err)
		return false
	}
	return exists
}

// Record marks an identity key as fully archived.
func (s *ArchiveService) Record(key string) error {
	return s.repo.Create(key)
}

package backup

import (
	"fmt"

	"github.com/mrz1836/keel/internal/constants"
	keelerrors "github.com/mrz1836/keel/internal/errors"
	"github.com/mrz1836/keel/internal/statefile"
)

// HistoryStore persists backup records under .git/keel/backups.json,
// newest first.
type HistoryStore struct {
	path string
}

// NewHistoryStore creates a store rooted at the given .git directory.
func NewHistoryStore(gitDir string) *HistoryStore {
	return &HistoryStore{path: statefile.PathIn(gitDir, constants.BackupHistoryFileName)}
}

// List returns all records, newest first.
func (s *HistoryStore) List() ([]Record, error) {
	var records []Record
	if _, err := statefile.Load(s.path, &records); err != nil {
		return nil, keelerrors.Wrap(err, "loading backup history")
	}
	return records, nil
}

// Get returns the record with the given ID, or ErrRecordNotFound.
func (s *HistoryStore) Get(id string) (*Record, error) {
	records, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, fmt.Errorf("backup %q: %w", id, keelerrors.ErrRecordNotFound)
}

// Append prepends a record so List stays newest first.
func (s *HistoryStore) Append(rec Record) error {
	records, err := s.List()
	if err != nil {
		return err
	}
	records = append([]Record{rec}, records...)
	return keelerrors.Wrap(statefile.Save(s.path, records), "saving backup history")
}

// Replace overwrites the full history. Used by pruning.
func (s *HistoryStore) Replace(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	return keelerrors.Wrap(statefile.Save(s.path, records), "saving backup history")
}

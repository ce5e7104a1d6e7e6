package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mr1hm/disaster-scout/internal/models"
)

const (
	LocationsFile = "locations.json"
	ResponsesFile = "responses.json"
)

// FileStore overwrites locations.json and responses.json in Dir with the
// latest run's stage outputs.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating snapshot dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (f *FileStore) SaveLocations(ctx context.Context, runID, idea string, locations []string) error {
	if locations == nil {
		locations = []string{}
	}
	return f.write(LocationsFile, locations)
}

func (f *FileStore) SaveRecords(ctx context.Context, runID string, records []models.CommentaryRecord) error {
	if records == nil {
		records = []models.CommentaryRecord{}
	}
	return f.write(ResponsesFile, records)
}

// write goes through a temp file so readers never see a partial snapshot.
func (f *FileStore) write(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(f.Dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("error writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error closing %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(f.Dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("error replacing %s: %w", name, err)
	}
	return nil
}

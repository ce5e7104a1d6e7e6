package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mr1hm/disaster-scout/internal/models"
)

var ErrRunNotFound = errors.New("run not found")

// SnapshotStore receives stage outputs for diagnostics. Nothing in the
// pipeline reads them back.
type SnapshotStore interface {
	SaveLocations(ctx context.Context, runID, idea string, locations []string) error
	SaveRecords(ctx context.Context, runID string, records []models.CommentaryRecord) error
}

type RunReader interface {
	GetRun(ctx context.Context, id string) (*Run, error)
}

type Run struct {
	ID        string
	Idea      string
	Locations []string
	Records   []models.CommentaryRecord
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Multi fans snapshots out to every store and joins their errors.
type Multi []SnapshotStore

func (m Multi) SaveLocations(ctx context.Context, runID, idea string, locations []string) error {
	var errs []error
	for _, s := range m {
		if err := s.SaveLocations(ctx, runID, idea, locations); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) SaveRecords(ctx context.Context, runID string, records []models.CommentaryRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.SaveRecords(ctx, runID, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mr1hm/disaster-scout/internal/models"
	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			idea TEXT NOT NULL,
			locations TEXT,
			records TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) SaveLocations(ctx context.Context, runID, idea string, locations []string) error {
	raw, err := json.Marshal(locations)
	if err != nil {
		return fmt.Errorf("error marshalling locations: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, idea, locations, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			idea = excluded.idea,
			locations = excluded.locations,
			updated_at = excluded.updated_at`,
		runID, idea, string(raw), now, now)
	if err != nil {
		return fmt.Errorf("error saving locations for run %s: %w", runID, err)
	}
	return nil
}

func (s *SQLiteDB) SaveRecords(ctx context.Context, runID string, records []models.CommentaryRecord) error {
	if records == nil {
		records = []models.CommentaryRecord{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("error marshalling records: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, idea, records, created_at, updated_at)
		VALUES (?, '', ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			records = excluded.records,
			updated_at = excluded.updated_at`,
		runID, string(raw), now, now)
	if err != nil {
		return fmt.Errorf("error saving records for run %s: %w", runID, err)
	}
	return nil
}

func (s *SQLiteDB) GetRun(ctx context.Context, id string) (*Run, error) {
	var (
		run       Run
		locations sql.NullString
		records   sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, idea, locations, records, created_at, updated_at FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Idea, &locations, &records, &run.CreatedAt, &run.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying run %s: %w", id, err)
	}

	if locations.Valid {
		if err := json.Unmarshal([]byte(locations.String), &run.Locations); err != nil {
			return nil, fmt.Errorf("error decoding locations: %w", err)
		}
	}
	if records.Valid {
		if err := json.Unmarshal([]byte(records.String), &run.Records); err != nil {
			return nil, fmt.Errorf("error decoding records: %w", err)
		}
	}
	return &run, nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

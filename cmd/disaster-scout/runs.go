package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mr1hm/disaster-scout/internal/models"
	"github.com/mr1hm/disaster-scout/internal/repository"
)

type runView struct {
	ID        string                    `json:"id"`
	Idea      string                    `json:"idea"`
	Locations []string                  `json:"locations"`
	Records   []models.CommentaryRecord `json:"records"`
	CreatedAt string                    `json:"created_at"`
	UpdatedAt string                    `json:"updated_at"`
}

func runsCMD() *cobra.Command {
	var runs = &cobra.Command{
		Use:   "runs",
		Short: "Inspect past pipeline runs",
	}
	runs.AddCommand(runsShowCMD())
	return runs
}

func runsShowCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the stored locations and records of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Snapshot.DBPath == "" {
				return errors.New("run log is disabled (SNAPSHOT_DB_PATH is empty)")
			}

			db, err := repository.NewSQLiteDB(cfg.Snapshot.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			return showRun(cmd.Context(), cmd.OutOrStdout(), db, args[0])
		},
	}
}

func showRun(ctx context.Context, w io.Writer, runs repository.RunReader, id string) error {
	run, err := runs.GetRun(ctx, id)
	if errors.Is(err, repository.ErrRunNotFound) {
		return fmt.Errorf("no run with id %s", id)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(runView{
		ID:        run.ID,
		Idea:      run.Idea,
		Locations: run.Locations,
		Records:   run.Records,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
		UpdatedAt: run.UpdatedAt.Format(time.RFC3339),
	})
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mr1hm/disaster-scout/internal/agent"
	"github.com/mr1hm/disaster-scout/internal/config"
	"github.com/mr1hm/disaster-scout/internal/geocode"
	"github.com/mr1hm/disaster-scout/internal/llm"
	"github.com/mr1hm/disaster-scout/internal/logging"
	"github.com/mr1hm/disaster-scout/internal/metrics"
	"github.com/mr1hm/disaster-scout/internal/pipeline"
	"github.com/mr1hm/disaster-scout/internal/repository"
	"github.com/mr1hm/disaster-scout/internal/tools/search"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

// buildPipeline constructs every stage from cfg. The returned cleanup closes
// the run log and is safe to call when nothing was opened.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, nil, err
	}

	model, err := llm.NewOpenAI(llm.Options{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
		MaxRetries:  cfg.LLM.MaxRetries,
	})
	if err != nil {
		return nil, nil, err
	}

	searchClient, err := search.NewClient(search.Options{
		APIKey:   cfg.Search.APIKey,
		URL:      cfg.Search.URL,
		Engine:   cfg.Search.Engine,
		Country:  cfg.Search.Country,
		Language: cfg.Search.Language,
		Domains:  cfg.Search.Domains,
		Results:  cfg.Search.Results,
		Timeout:  cfg.Search.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}

	reasoner, err := agent.New(model, []agent.Tool{searchClient.Tool()},
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
		agent.WithObserver(metrics.ObserveAgent),
	)
	if err != nil {
		return nil, nil, err
	}

	geocoder, err := geocode.NewNominatim(geocode.NominatimOptions{
		BaseURL:           cfg.Geocoder.URL,
		UserAgent:         cfg.Geocoder.UserAgent,
		RequestsPerSecond: cfg.Geocoder.RequestsPerSecond,
		Timeout:           cfg.Geocoder.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}

	stores, db, err := openSnapshots(cfg.Snapshot)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if db != nil {
			db.Close()
		}
	}

	var snapshots repository.SnapshotStore
	if len(stores) > 0 {
		snapshots = stores
	}

	p := pipeline.New(reasoner, geocoder, snapshots, pipeline.Options{
		Workers:        cfg.Pipeline.Workers,
		RequestTimeout: cfg.Pipeline.RequestTimeout,
		Logger:         slog.Default(),
	})
	return p, cleanup, nil
}

func openSnapshots(cfg config.SnapshotConfig) (repository.Multi, *repository.SQLiteDB, error) {
	var stores repository.Multi
	if cfg.Dir != "" {
		fs, err := repository.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		stores = append(stores, fs)
	}

	var db *repository.SQLiteDB
	if cfg.DBPath != "" {
		var err error
		db, err = openRunLog(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		stores = append(stores, db)
	}
	return stores, db, nil
}

func openRunLog(path string) (*repository.SQLiteDB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating run log directory: %w", err)
		}
	}
	return repository.NewSQLiteDB(path)
}

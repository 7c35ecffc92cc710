package watcher

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spelekhaty-ai/ummc-formulary/internal"
	"github.com/spelekhaty-ai/ummc-formulary/internal/config"
	"github.com/spelekhaty-ai/ummc-formulary/internal/formulary"
	"github.com/spelekhaty-ai/ummc-formulary/internal/source"
	"github.com/spelekhaty-ai/ummc-formulary/internal/storage"
)

// Service polls the configured formulary source and re-normalizes when the
// content hash changes. Unchanged content is a no-op cycle.
type Service struct {
	db  *storage.DB
	cfg config.Config
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			fmt.Printf("watcher cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.WatchIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	fetcher := source.NewFetcher(s.db, s.cfg)

	var row internal.SourceRow
	if s.cfg.SourceURL != "" {
		fetched, err := fetcher.FetchAndStore(ctx)
		if err != nil {
			return err
		}
		row = fetched
	} else {
		path, kind, err := source.Discover(s.cfg.SourcePaths)
		if err != nil {
			return err
		}
		blob, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		stored, err := fetcher.Store(kind, path, blob)
		if err != nil {
			return err
		}
		row = stored
	}

	svc := formulary.NewService(s.db)
	result, err := svc.ProcessSource(row)
	if err != nil {
		return err
	}

	if result.Reused {
		fmt.Printf("watcher cycle done source=%s unchanged snapshot=%s\n", row.Location, result.SnapshotID)
	} else {
		fmt.Printf("watcher cycle done source=%s snapshot=%s products=%d attributes=%d\n",
			row.Location, result.SnapshotID, result.Products, result.Attributes)
	}
	return nil
}

package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spelekhaty-ai/ummc-formulary/internal"
	"github.com/spelekhaty-ai/ummc-formulary/internal/config"
	"github.com/spelekhaty-ai/ummc-formulary/internal/storage"
)

// Fetcher pulls the published formulary over HTTP and stores the raw bytes
// content-addressed under the raw dir, recording a sources row per fetch.
type Fetcher struct {
	db         *storage.DB
	cfg        config.Config
	httpClient *http.Client
}

func NewFetcher(db *storage.DB, cfg config.Config) *Fetcher {
	return &Fetcher{
		db:         db,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.FetchTimeoutMs) * time.Millisecond},
	}
}

// FetchAndStore downloads the configured source URL. An unchanged content hash
// still refreshes the sources row but leaves the stored raw file alone.
func (f *Fetcher) FetchAndStore(ctx context.Context) (internal.SourceRow, error) {
	blob, err := f.fetch(ctx, f.cfg.SourceURL)
	if err != nil {
		return internal.SourceRow{}, err
	}
	return f.Store(KindForPath(f.cfg.SourceURL), f.cfg.SourceURL, blob)
}

// Store writes raw formulary bytes under the raw dir keyed by content hash and
// upserts the matching sources row with status "fetched".
func (f *Fetcher) Store(kind, location string, blob []byte) (internal.SourceRow, error) {
	hashBytes := sha256.Sum256(blob)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(f.cfg.RawDir, 0o755); err != nil {
		return internal.SourceRow{}, err
	}
	rawPath := filepath.Join(f.cfg.RawDir, hash+"."+kind)
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, blob, 0o644); err != nil {
			return internal.SourceRow{}, err
		}
	}

	return f.db.UpsertSource(kind, location, hash, rawPath, "fetched")
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, ErrNoSource
	}

	var lastErr error
	for attempt := 1; attempt <= f.cfg.FetchRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("formulary fetch status %d", resp.StatusCode)
			if isRetryableStatus(resp.StatusCode) && attempt < f.cfg.FetchRetries {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				continue
			}
			return nil, lastErr
		}
		return body, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("formulary fetch failed: %s", url)
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

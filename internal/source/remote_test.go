package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/spelekhaty-ai/ummc-formulary/internal/config"
	"github.com/spelekhaty-ai/ummc-formulary/internal/storage"
)

func TestFetchAndStoreWithRetry(t *testing.T) {
	attempt := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempt++
		if attempt == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("attr,A,B\nDensity,1.5,2.0\n"))
	}))
	defer srv.Close()

	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "formulary.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cfg, _ := config.Load()
	cfg.RawDir = filepath.Join(tmp, "raw")
	cfg.SourceURL = srv.URL + "/formulary.csv"

	fetcher := NewFetcher(db, cfg)
	row, err := fetcher.FetchAndStore(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if attempt != 2 {
		t.Fatalf("attempts=%d", attempt)
	}
	if row.Status != "fetched" || row.Hash == "" {
		t.Fatalf("row: %+v", row)
	}

	table, err := Load([]string{row.RawRef})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Products) != 2 {
		t.Fatalf("products: %v", table.Products)
	}
}

func TestStoreIsContentAddressed(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "formulary.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cfg, _ := config.Load()
	cfg.RawDir = filepath.Join(tmp, "raw")

	fetcher := NewFetcher(db, cfg)
	blob := []byte("attr,A\nDensity,1.0\n")

	first, err := fetcher.Store(KindCSV, "formulary.csv", blob)
	if err != nil {
		t.Fatal(err)
	}
	second, err := fetcher.Store(KindCSV, "formulary.csv", blob)
	if err != nil {
		t.Fatal(err)
	}
	if first.Hash != second.Hash || first.RawRef != second.RawRef {
		t.Fatalf("rows differ: %+v vs %+v", first, second)
	}
	if first.ID != second.ID {
		t.Fatalf("source row duplicated")
	}
}

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/spelekhaty-ai/ummc-formulary/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS sources (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  kind TEXT NOT NULL,
  location TEXT NOT NULL,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  fetchedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(location)
);

CREATE TABLE IF NOT EXISTS snapshots (
  id TEXT PRIMARY KEY,
  sourceHash TEXT NOT NULL UNIQUE,
  cardJson TEXT NOT NULL,
  columnsJson TEXT NOT NULL,
  productCount INTEGER NOT NULL,
  attributeCount INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS products (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  snapshotId TEXT NOT NULL,
  position INTEGER NOT NULL,
  name TEXT NOT NULL,
  density REAL NOT NULL,
  proteinPerLiter REAL NOT NULL,
  category TEXT NOT NULL,
  attributesJson TEXT NOT NULL,
  UNIQUE(snapshotId, position),
  FOREIGN KEY(snapshotId) REFERENCES snapshots(id)
);
CREATE INDEX IF NOT EXISTS idx_products_snapshot ON products(snapshotId);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(snapshotId, category);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  sourceId INTEGER,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(sourceId) REFERENCES sources(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertSource(kind, location, hash, rawRef, status string) (internal.SourceRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO sources (kind, location, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(location) DO UPDATE SET
  kind=excluded.kind,
  hash=excluded.hash,
  status=excluded.status,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, kind, location, hash, status, rawRef)
	if err != nil {
		return internal.SourceRow{}, err
	}

	row, err := d.GetSourceByLocation(location)
	if err != nil {
		return internal.SourceRow{}, err
	}
	if row == nil {
		return internal.SourceRow{}, errors.New("failed to upsert source")
	}
	return *row, nil
}

func (d *DB) GetSourceByLocation(location string) (*internal.SourceRow, error) {
	var row internal.SourceRow
	err := d.conn.QueryRow(`
SELECT id, kind, location, hash, status, rawRef, fetchedAt
FROM sources WHERE location = ?
`, location).Scan(&row.ID, &row.Kind, &row.Location, &row.Hash, &row.Status, &row.RawRef, &row.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) ListSourcesByStatus(status string, limit int) ([]internal.SourceRow, error) {
	rows, err := d.conn.Query(`
SELECT id, kind, location, hash, status, rawRef, fetchedAt
FROM sources WHERE status = ? ORDER BY fetchedAt ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SourceRow
	for rows.Next() {
		var row internal.SourceRow
		if err := rows.Scan(&row.ID, &row.Kind, &row.Location, &row.Hash, &row.Status, &row.RawRef, &row.FetchedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateSourceStatus(sourceID int, status string) error {
	_, err := d.conn.Exec(`UPDATE sources SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, sourceID)
	return err
}

// InsertSnapshot persists both derived views under one snapshot id. An existing
// snapshot for the same source hash is replaced wholesale.
func (d *DB) InsertSnapshot(id, sourceHash string, card internal.CardView, calc internal.CalcView) error {
	cardJSON, err := json.Marshal(card)
	if err != nil {
		return err
	}
	columnsJSON, _ := json.Marshal(calc.Columns)

	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteSnapshotTx(tx, sourceHash); err != nil {
		return err
	}

	if _, err := tx.Exec(`
INSERT INTO snapshots (id, sourceHash, cardJson, columnsJson, productCount, attributeCount)
VALUES (?, ?, ?, ?, ?, ?)
`, id, sourceHash, string(cardJSON), string(columnsJSON), len(calc.Products), len(card.Rows)); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO products (snapshotId, position, name, density, proteinPerLiter, category, attributesJson)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range calc.Products {
		attrsJSON, _ := json.Marshal(p.Attributes)
		if _, err := stmt.Exec(id, i, p.Name, p.Density, p.ProteinPerLiter, string(p.Category), string(attrsJSON)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func deleteSnapshotTx(tx *sql.Tx, sourceHash string) error {
	var id string
	err := tx.QueryRow(`SELECT id FROM snapshots WHERE sourceHash = ?`, sourceHash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM products WHERE snapshotId = ?`, id); err != nil {
		return err
	}
	_, err = tx.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	return err
}

func (d *DB) SnapshotByHash(sourceHash string) (*internal.SnapshotRow, error) {
	return d.snapshotWhere(`sourceHash = ?`, sourceHash)
}

func (d *DB) LatestSnapshot() (*internal.SnapshotRow, error) {
	return d.snapshotWhere(`1=1 ORDER BY createdAt DESC, rowid DESC`, nil)
}

func (d *DB) snapshotWhere(clause string, arg any) (*internal.SnapshotRow, error) {
	query := `SELECT id, sourceHash, productCount, attributeCount, createdAt FROM snapshots WHERE ` + clause + ` LIMIT 1`
	var row internal.SnapshotRow
	var err error
	if arg == nil {
		err = d.conn.QueryRow(query).Scan(&row.ID, &row.SourceHash, &row.ProductCount, &row.AttributeCount, &row.CreatedAt)
	} else {
		err = d.conn.QueryRow(query, arg).Scan(&row.ID, &row.SourceHash, &row.ProductCount, &row.AttributeCount, &row.CreatedAt)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetCardView(snapshotID string) (internal.CardView, error) {
	var cardJSON string
	err := d.conn.QueryRow(`SELECT cardJson FROM snapshots WHERE id = ?`, snapshotID).Scan(&cardJSON)
	if err != nil {
		return internal.CardView{}, err
	}
	var view internal.CardView
	if err := json.Unmarshal([]byte(cardJSON), &view); err != nil {
		return internal.CardView{}, err
	}
	return view, nil
}

func (d *DB) GetCalcView(snapshotID string) (internal.CalcView, error) {
	var columnsJSON string
	err := d.conn.QueryRow(`SELECT columnsJson FROM snapshots WHERE id = ?`, snapshotID).Scan(&columnsJSON)
	if err != nil {
		return internal.CalcView{}, err
	}

	var view internal.CalcView
	_ = json.Unmarshal([]byte(columnsJSON), &view.Columns)

	products, err := d.ListProducts(snapshotID)
	if err != nil {
		return internal.CalcView{}, err
	}
	view.Products = products
	return view, nil
}

func (d *DB) ListProducts(snapshotID string) ([]internal.ProductRecord, error) {
	rows, err := d.conn.Query(`
SELECT name, density, proteinPerLiter, category, attributesJson
FROM products WHERE snapshotId = ? ORDER BY position ASC
`, snapshotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ProductRecord
	for rows.Next() {
		var p internal.ProductRecord
		var category, attrsJSON string
		if err := rows.Scan(&p.Name, &p.Density, &p.ProteinPerLiter, &category, &attrsJSON); err != nil {
			return nil, err
		}
		p.Category = internal.Category(category)
		_ = json.Unmarshal([]byte(attrsJSON), &p.Attributes)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(traceID string, sourceID int, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, sourceId, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, sourceID, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

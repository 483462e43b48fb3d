// Package storage maintains the archive index: a SQLite record of every
// paper analyzed so far, for listing and cross-run lookups. The index is a
// cache over the markdown corpus, safe to delete and rebuild.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the archive index database.
type DB struct {
	db *sql.DB
}

// Record is one analyzed paper in the archive index.
type Record struct {
	DOI        string    `json:"doi"`
	KTID       string    `json:"kt_id"`
	Title      string    `json:"title"`
	Authors    []string  `json:"authors"`
	Year       int       `json:"year"`
	Depth      int       `json:"depth"`
	NotePath   string    `json:"note_path"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Open opens or creates the archive index at the given path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			doi TEXT PRIMARY KEY,
			kt_id TEXT NOT NULL,
			title TEXT NOT NULL,
			authors_json TEXT NOT NULL,
			year INTEGER NOT NULL,
			depth INTEGER NOT NULL,
			note_path TEXT NOT NULL,
			analyzed_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_papers_kt_id ON papers(kt_id);
		CREATE INDEX IF NOT EXISTS idx_papers_depth ON papers(depth);
	`

	_, err := db.Exec(schema)
	return err
}

// Upsert inserts or replaces the record for a paper (keyed by DOI).
func (d *DB) Upsert(rec Record) error {
	authorsJSON, err := json.Marshal(rec.Authors)
	if err != nil {
		return fmt.Errorf("encoding authors: %w", err)
	}

	_, err = d.db.Exec(`
		INSERT INTO papers (doi, kt_id, title, authors_json, year, depth, note_path, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doi) DO UPDATE SET
			kt_id = excluded.kt_id,
			title = excluded.title,
			authors_json = excluded.authors_json,
			year = excluded.year,
			depth = excluded.depth,
			note_path = excluded.note_path,
			analyzed_at = excluded.analyzed_at`,
		rec.DOI, rec.KTID, rec.Title, string(authorsJSON), rec.Year, rec.Depth, rec.NotePath, rec.AnalyzedAt.Unix())
	if err != nil {
		return fmt.Errorf("upserting paper %s: %w", rec.DOI, err)
	}
	return nil
}

// GetByDOI returns the record for a DOI, or nil if not indexed.
func (d *DB) GetByDOI(doi string) (*Record, error) {
	row := d.db.QueryRow(`
		SELECT doi, kt_id, title, authors_json, year, depth, note_path, analyzed_at
		FROM papers WHERE doi = ?`, doi)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting paper %s: %w", doi, err)
	}
	return rec, nil
}

// List returns all indexed papers ordered by depth, then DOI.
func (d *DB) List() ([]Record, error) {
	rows, err := d.db.Query(`
		SELECT doi, kt_id, title, authors_json, year, depth, note_path, analyzed_at
		FROM papers ORDER BY depth, doi`)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Count returns the number of indexed papers.
func (d *DB) Count() (int, error) {
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// scanner abstracts sql.Row and sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var rec Record
	var authorsJSON string
	var analyzedAt int64

	if err := s.Scan(&rec.DOI, &rec.KTID, &rec.Title, &authorsJSON, &rec.Year, &rec.Depth, &rec.NotePath, &analyzedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(authorsJSON), &rec.Authors); err != nil {
		return nil, fmt.Errorf("decoding authors: %w", err)
	}
	rec.AnalyzedAt = time.Unix(analyzedAt, 0).UTC()

	return &rec, nil
}

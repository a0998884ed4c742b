// Package journal keeps an SQLite audit trail of acquisition runs and the
// images they accepted. It is write-mostly; nothing in the pipeline reads it
// back to make filtering decisions.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	facegrab "github.com/anatolykoptev/go-facegrab"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	dir TEXT NOT NULL,
	stop TEXT,
	accepted INTEGER,
	pages INTEGER,
	last_offset INTEGER,
	started_at TEXT,
	finished_at TEXT
);
CREATE TABLE IF NOT EXISTS images (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	query TEXT NOT NULL,
	idx INTEGER NOT NULL,
	url TEXT NOT NULL,
	page_url TEXT,
	path TEXT NOT NULL,
	format TEXT,
	width INTEGER,
	height INTEGER,
	md5 TEXT,
	fingerprint TEXT,
	artist TEXT,
	copyright TEXT,
	created_at TEXT,
	UNIQUE(run_id, idx)
);
CREATE INDEX IF NOT EXISTS idx_images_run ON images(run_id);`

// Journal is a facegrab.Journal backed by SQLite.
type Journal struct {
	db *sql.DB
}

var _ facegrab.Journal = (*Journal)(nil)

// Run is one row of the runs table.
type Run struct {
	ID       string
	Query    string
	Dir      string
	Stop     string
	Accepted int
	Pages    int
}

// Image is one row of the images table.
type Image struct {
	RunID       string
	Index       int
	URL         string
	Path        string
	Format      string
	Width       int
	Height      int
	MD5         string
	Fingerprint string
	Artist      string
	Copyright   string
}

// Open opens (creating if needed) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordImage implements facegrab.Journal.
func (j *Journal) RecordImage(ctx context.Context, runID, query string, img facegrab.AcceptedImage) error {
	var artist, copyright string
	if img.Metadata != nil {
		artist = img.Metadata.Artist
		copyright = img.Metadata.Copyright
	}
	fingerprint := ""
	if s, ok := img.Fingerprint.(fmt.Stringer); ok {
		fingerprint = s.String()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO images (run_id, query, idx, url, page_url, path, format, width, height, md5, fingerprint, artist, copyright, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, query, img.Index, img.URL, img.PageURL, img.Path, img.Format, img.Width, img.Height,
		img.Digest, fingerprint, artist, copyright, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert image %s: %w", img.URL, err)
	}
	return nil
}

// FinishRun implements facegrab.Journal.
func (j *Journal) FinishRun(ctx context.Context, res *facegrab.Result) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, query, dir, stop, accepted, pages, last_offset, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Query, res.Dir, string(res.Stop), len(res.URLs), res.Pages, res.LastOffset,
		res.StartedAt.UTC().Format(time.RFC3339), res.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", res.RunID, err)
	}
	return nil
}

// Runs lists recorded runs, most recent first.
func (j *Journal) Runs(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, query, dir, stop, accepted, pages FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Query, &r.Dir, &r.Stop, &r.Accepted, &r.Pages); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Images lists the images accepted by a run in acceptance order.
func (j *Journal) Images(ctx context.Context, runID string) ([]Image, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, idx, url, path, format, width, height, md5, fingerprint, artist, copyright
		FROM images WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Image
	for rows.Next() {
		var im Image
		if err := rows.Scan(&im.RunID, &im.Index, &im.URL, &im.Path, &im.Format, &im.Width, &im.Height,
			&im.MD5, &im.Fingerprint, &im.Artist, &im.Copyright); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Yunitra/AnyDownloadManager/internal/engine/types"
)

// Download statuses recorded in the history store.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

// Entry is one row of the history store.
type Entry struct {
	ID           string
	URL          string
	DestPath     string
	TempPath     string
	Filename     string
	Status       string
	TotalSize    int64
	TotalKnown   bool
	AcceptRanges bool
	CreatedAt    int64
	FinishedAt   int64
}

// Meta reconstructs the engine-side metadata from a history row.
func (e *Entry) Meta() types.DownloadMeta {
	return types.DownloadMeta{
		URL:          e.URL,
		Dest:         e.DestPath,
		Temp:         e.TempPath,
		Total:        e.TotalSize,
		TotalKnown:   e.TotalKnown,
		AcceptRanges: e.AcceptRanges,
	}
}

// History is a SQLite-backed record of downloads across process restarts.
// The live registry stays authoritative for running transfers; history is
// what lets a later process list past downloads and resume interrupted ones.
type History struct {
	db *sql.DB
}

// OpenHistory opens the history store at path, creating it if absent.
func OpenHistory(path string) (*History, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// Record upserts a download. An empty id gets a generated one, which is
// returned.
func (h *History) Record(id, filename string, meta types.DownloadMeta, status string) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}
	var total sql.NullInt64
	if meta.TotalKnown {
		total = sql.NullInt64{Int64: meta.Total, Valid: true}
	}
	err := withTx(h.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO downloads (
				id, url, dest_path, temp_path, filename, status, total_size, accept_ranges, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				url=excluded.url,
				dest_path=excluded.dest_path,
				temp_path=excluded.temp_path,
				filename=excluded.filename,
				status=excluded.status,
				total_size=excluded.total_size,
				accept_ranges=excluded.accept_ranges
		`, id, meta.URL, meta.Dest, meta.Temp, filename, status, total,
			boolToInt(meta.AcceptRanges), time.Now().Unix())
		return err
	})
	if err != nil {
		return "", fmt.Errorf("record download: %w", err)
	}
	return id, nil
}

// SetStatus moves a download to the given status, stamping finished_at for
// terminal ones.
func (h *History) SetStatus(id, status string) error {
	var finished sql.NullInt64
	if status != StatusActive {
		finished = sql.NullInt64{Int64: time.Now().Unix(), Valid: true}
	}
	res, err := h.db.Exec(
		"UPDATE downloads SET status = ?, finished_at = ? WHERE id = ?",
		status, finished, id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("download not found: %s", id)
	}
	return nil
}

// Get returns the entry for id, or nil when absent.
func (h *History) Get(id string) (*Entry, error) {
	row := h.db.QueryRow(`
		SELECT id, url, dest_path, temp_path, filename, status, total_size, accept_ranges, created_at, finished_at
		FROM downloads WHERE id = ?
	`, id)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query download: %w", err)
	}
	return entry, nil
}

// List returns all entries, newest first.
func (h *History) List() ([]Entry, error) {
	rows, err := h.db.Query(`
		SELECT id, url, dest_path, temp_path, filename, status, total_size, accept_ranges, created_at, finished_at
		FROM downloads ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query downloads: %w", err)
	}
	defer rows.Close()

	var list []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *entry)
	}
	return list, rows.Err()
}

// Remove drops the entry for id. Removing an unknown id is not an error.
func (h *History) Remove(id string) error {
	_, err := h.db.Exec("DELETE FROM downloads WHERE id = ?", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var total, finished sql.NullInt64
	var acceptRanges int
	if err := row.Scan(
		&e.ID, &e.URL, &e.DestPath, &e.TempPath, &e.Filename, &e.Status,
		&total, &acceptRanges, &e.CreatedAt, &finished,
	); err != nil {
		return nil, err
	}
	if total.Valid {
		e.TotalSize = total.Int64
		e.TotalKnown = true
	}
	if finished.Valid {
		e.FinishedAt = finished.Int64
	}
	e.AcceptRanges = acceptRanges != 0
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

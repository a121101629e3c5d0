// Package store provides SQLite persistence for curated datasets.
//
// A saved dataset is one row in datasets plus its node hierarchy flattened
// into nodes in preorder. Waveforms are stored as little-endian float32 blobs.
// Saves are append-only: saving under an existing name adds a newer version,
// and loads by name return the latest.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/abelbrown/suss/internal/dataset"
)

// ErrNotFound is returned when no dataset matches a name or id.
var ErrNotFound = errors.New("dataset not found")

// Kind records why a dataset was saved.
type Kind string

const (
	KindLoad     Kind = "load"     // imported as the starting point of a session
	KindCurated  Kind = "curated"  // explicit save
	KindRecovery Kind = "recovery" // autosave or crash snapshot
)

// CuratedSuffix is appended to the name of an explicit save.
const CuratedSuffix = "-curated"

// CuratedName returns the name an explicit save of name is stored under.
func CuratedName(name string) string {
	if strings.HasSuffix(name, CuratedSuffix) {
		return name
	}
	return name + CuratedSuffix
}

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations
}

// Meta describes a saved dataset without its nodes.
type Meta struct {
	ID       string
	Name     string
	Kind     Kind
	Clusters int
	Events   int
	Created  time.Time
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		clusters INTEGER NOT NULL,
		events INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	-- Foreign keys are not enforced (no PRAGMA foreign_keys), so node rows
	-- are deleted explicitly alongside their dataset.
	CREATE TABLE IF NOT EXISTS nodes (
		dataset_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		parent INTEGER NOT NULL,
		label INTEGER NOT NULL,
		leaf INTEGER NOT NULL,
		time REAL NOT NULL,
		waveform BLOB,
		PRIMARY KEY (dataset_id, seq),
		FOREIGN KEY (dataset_id) REFERENCES datasets(id)
	);

	CREATE INDEX IF NOT EXISTS idx_datasets_name ON datasets(name);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveDataset stores ds under name and returns the new dataset id.
// Thread-safe: acquires write lock.
func (s *Store) SaveDataset(ctx context.Context, name string, kind Kind, ds dataset.Dataset) (string, error) {
	if name == "" {
		return "", errors.New("save dataset: empty name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO datasets (id, name, kind, clusters, events, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, string(kind), ds.Len(), ds.Count(), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert dataset: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (dataset_id, seq, parent, label, leaf, time, waveform)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, r := range flatten(ds.Nodes()) {
		_, err := stmt.ExecContext(ctx, id, r.seq, r.parent, int(r.node.Label), boolToInt(r.node.IsLeaf()), r.node.Time, encodeWaveform(r.waveform()))
		if err != nil {
			return "", fmt.Errorf("insert node %d: %w", r.seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// LoadDataset returns the most recent dataset saved under name.
// Thread-safe: acquires read lock.
func (s *Store) LoadDataset(ctx context.Context, name string) (*dataset.Tree, Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.queryMeta(ctx, `
		SELECT id, name, kind, clusters, events, created_at FROM datasets
		WHERE name = ? ORDER BY rowid DESC LIMIT 1
	`, name)
	if err != nil {
		return nil, Meta{}, err
	}
	tree, err := s.loadNodes(ctx, meta)
	return tree, meta, err
}

// LoadByID returns the dataset with the given id.
// Thread-safe: acquires read lock.
func (s *Store) LoadByID(ctx context.Context, id string) (*dataset.Tree, Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, err := s.queryMeta(ctx, `
		SELECT id, name, kind, clusters, events, created_at FROM datasets WHERE id = ?
	`, id)
	if err != nil {
		return nil, Meta{}, err
	}
	tree, err := s.loadNodes(ctx, meta)
	return tree, meta, err
}

// ListDatasets returns every saved dataset, newest first.
// Thread-safe: acquires read lock.
func (s *Store) ListDatasets(ctx context.Context) ([]Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, clusters, events, created_at FROM datasets
		ORDER BY rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// PruneRecovery deletes all but the newest keep recovery snapshots of name.
// Returns the number of datasets removed.
// Thread-safe: acquires write lock.
func (s *Store) PruneRecovery(ctx context.Context, name string, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	doomed := `
		SELECT id FROM datasets WHERE name = ? AND kind = ?
		ORDER BY rowid DESC LIMIT -1 OFFSET ?
	`
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE dataset_id IN (`+doomed+`)`, name, string(KindRecovery), keep); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE id IN (`+doomed+`)`, name, string(KindRecovery), keep)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), tx.Commit()
}

// queryMeta runs a single-row dataset query.
// Caller must hold s.mu (read lock is sufficient).
func (s *Store) queryMeta(ctx context.Context, query string, args ...any) (Meta, error) {
	m, err := scanMeta(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, fmt.Errorf("%w: %v", ErrNotFound, args[0])
	}
	return m, err
}

// loadNodes rebuilds the hierarchy for meta.
// Caller must hold s.mu (read lock is sufficient).
func (s *Store) loadNodes(ctx context.Context, meta Meta) (*dataset.Tree, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, parent, label, leaf, time, waveform FROM nodes
		WHERE dataset_id = ? ORDER BY seq
	`, meta.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stored []storedNode
	for rows.Next() {
		var r storedNode
		var leafInt int
		var blob []byte
		if err := rows.Scan(&r.seq, &r.parent, &r.label, &leafInt, &r.time, &blob); err != nil {
			return nil, err
		}
		r.leaf = leafInt != 0
		if r.waveform, err = decodeWaveform(blob); err != nil {
			return nil, fmt.Errorf("node %d: %w", r.seq, err)
		}
		stored = append(stored, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tree, err := rebuild(stored)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", meta.ID, err)
	}
	if tree.Count() != meta.Events {
		return nil, fmt.Errorf("dataset %s: %d events stored, %d expected", meta.ID, tree.Count(), meta.Events)
	}
	return tree, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeta(sc scanner) (Meta, error) {
	var m Meta
	var kind string
	if err := sc.Scan(&m.ID, &m.Name, &kind, &m.Clusters, &m.Events, &m.Created); err != nil {
		return Meta{}, err
	}
	m.Kind = Kind(kind)
	return m, nil
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Package sqlite is the SQLite implementation of the record store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pairwell/provider-gateway/internal/domain"
	"github.com/pairwell/provider-gateway/internal/storage"
)

// Store is a SQLite-backed RecordStore.
type Store struct {
	db *sql.DB
}

var _ storage.RecordStore = (*Store)(nil)

// New opens (creating if necessary) the database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS providers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			family TEXT NOT NULL,
			base_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			last_synced TIMESTAMP,
			capabilities TEXT NOT NULL,
			config TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS models (
			id TEXT PRIMARY KEY,
			provider_id TEXT NOT NULL,
			model_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			description TEXT,
			modality TEXT NOT NULL,
			context_limit INTEGER NOT NULL DEFAULT 0,
			input_pricing TEXT,
			output_pricing TEXT,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			capabilities TEXT NOT NULL,
			realtime INTEGER NOT NULL DEFAULT 0,
			enabled INTEGER NOT NULL DEFAULT 1,
			UNIQUE(provider_id, model_id),
			FOREIGN KEY (provider_id) REFERENCES providers(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS voices (
			id TEXT PRIMARY KEY,
			provider_id TEXT NOT NULL,
			voice_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			gender TEXT,
			locale TEXT NOT NULL DEFAULT 'en-US',
			language TEXT NOT NULL DEFAULT 'en',
			accent TEXT,
			age TEXT,
			styles TEXT,
			sample_url TEXT,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			pricing TEXT,
			enabled INTEGER NOT NULL DEFAULT 1,
			UNIQUE(provider_id, voice_id),
			FOREIGN KEY (provider_id) REFERENCES providers(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS provider_sync_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			provider_id TEXT NOT NULL,
			sync_type TEXT NOT NULL,
			status TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP NOT NULL,
			models_discovered INTEGER NOT NULL DEFAULT 0,
			voices_discovered INTEGER NOT NULL DEFAULT 0,
			errors TEXT,
			metadata TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS provider_health (
			provider_id TEXT NOT NULL,
			endpoint TEXT NOT NULL,
			status_code INTEGER NOT NULL DEFAULT 0,
			response_time_ms INTEGER NOT NULL DEFAULT 0,
			healthy INTEGER NOT NULL DEFAULT 0,
			error TEXT,
			checked_at TIMESTAMP NOT NULL,
			PRIMARY KEY (provider_id, endpoint)
		)`,
		`CREATE TABLE IF NOT EXISTS provider_credentials (
			provider_id TEXT PRIMARY KEY,
			ciphertext BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_models_provider ON models(provider_id)`,
		`CREATE INDEX IF NOT EXISTS idx_voices_provider ON voices(provider_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_logs_provider ON provider_sync_logs(provider_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Provider rows

func (s *Store) CreateProvider(ctx context.Context, p *domain.Provider) error {
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	caps, err := json.Marshal(p.Capabilities)
	if err != nil {
		return fmt.Errorf("failed to marshal capabilities: %w", err)
	}
	cfg, err := json.Marshal(p.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	query := `INSERT INTO providers (id, name, family, base_url, status, last_synced, capabilities, config, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		p.ID, p.Name, string(p.Family), p.BaseURL, string(p.Status),
		p.LastSynced, string(caps), string(cfg), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	return nil
}

func (s *Store) GetProvider(ctx context.Context, id string) (*domain.Provider, error) {
	query := `SELECT id, name, family, base_url, status, last_synced, capabilities, config, created_at, updated_at
	          FROM providers WHERE id = ?`

	p, err := scanProvider(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return p, nil
}

func (s *Store) ListProviders(ctx context.Context) ([]*domain.Provider, error) {
	query := `SELECT id, name, family, base_url, status, last_synced, capabilities, config, created_at, updated_at
	          FROM providers ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query providers: %w", err)
	}
	defer rows.Close()

	var providers []*domain.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProvider(row rowScanner) (*domain.Provider, error) {
	var p domain.Provider
	var family, status, capsJSON, cfgJSON string
	var lastSynced sql.NullTime

	err := row.Scan(&p.ID, &p.Name, &family, &p.BaseURL, &status,
		&lastSynced, &capsJSON, &cfgJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	p.Family = domain.Family(family)
	p.Status = domain.ProviderStatus(status)
	if lastSynced.Valid {
		p.LastSynced = &lastSynced.Time
	}
	if err := json.Unmarshal([]byte(capsJSON), &p.Capabilities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal capabilities: %w", err)
	}
	if err := json.Unmarshal([]byte(cfgJSON), &p.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &p, nil
}

func (s *Store) UpdateProviderStatus(ctx context.Context, id string, status domain.ProviderStatus) error {
	query := `UPDATE providers SET status = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update provider status: %w", err)
	}
	return requireRow(result)
}

func (s *Store) TouchProviderSync(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE providers SET last_synced = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, at, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update provider sync time: %w", err)
	}
	return requireRow(result)
}

func (s *Store) DeleteProvider(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM providers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete provider: %w", err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

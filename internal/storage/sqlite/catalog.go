package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pairwell/provider-gateway/internal/domain"
	"github.com/pairwell/provider-gateway/internal/storage"
)

// Model rows are upserted by (provider_id, model_id); the surrogate id
// assigned on first insert survives later updates.

func (s *Store) UpsertModels(ctx context.Context, models []domain.Model) error {
	if len(models) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO models (id, provider_id, model_id, display_name, description, modality,
	            context_limit, input_pricing, output_pricing, latency_ms, capabilities, realtime, enabled)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT(provider_id, model_id) DO UPDATE SET
	            display_name=excluded.display_name,
	            description=excluded.description,
	            modality=excluded.modality,
	            context_limit=excluded.context_limit,
	            input_pricing=excluded.input_pricing,
	            output_pricing=excluded.output_pricing,
	            latency_ms=excluded.latency_ms,
	            capabilities=excluded.capabilities,
	            realtime=excluded.realtime,
	            enabled=excluded.enabled`

	for _, m := range models {
		caps, err := json.Marshal(m.Capabilities)
		if err != nil {
			return fmt.Errorf("failed to marshal model capabilities: %w", err)
		}
		inPricing, err := marshalNullable(m.InputPricing)
		if err != nil {
			return err
		}
		outPricing, err := marshalNullable(m.OutputPricing)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, query,
			m.ID, m.ProviderID, m.ModelID, m.DisplayName, m.Description, string(m.Modality),
			m.ContextLimit, inPricing, outPricing, m.LatencyMs, string(caps), m.Realtime, m.Enabled)
		if err != nil {
			return fmt.Errorf("failed to upsert model %s: %w", m.ModelID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetModel(ctx context.Context, id string) (*domain.Model, error) {
	query := modelSelect + ` WHERE id = ?`

	m, err := scanModel(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return m, nil
}

func (s *Store) ListModels(ctx context.Context, providerID string) ([]domain.Model, error) {
	query := modelSelect
	var args []any
	if providerID != "" {
		query += ` WHERE provider_id = ?`
		args = append(args, providerID)
	}
	query += ` ORDER BY provider_id, model_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	var models []domain.Model
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		models = append(models, *m)
	}
	return models, rows.Err()
}

func (s *Store) SetModelEnabled(ctx context.Context, providerID, modelID string, enabled bool) error {
	query := `UPDATE models SET enabled = ? WHERE provider_id = ? AND model_id = ?`

	result, err := s.db.ExecContext(ctx, query, enabled, providerID, modelID)
	if err != nil {
		return fmt.Errorf("failed to update model: %w", err)
	}
	return requireRow(result)
}

const modelSelect = `SELECT id, provider_id, model_id, display_name, description, modality,
	context_limit, input_pricing, output_pricing, latency_ms, capabilities, realtime, enabled
	FROM models`

func scanModel(row rowScanner) (*domain.Model, error) {
	var m domain.Model
	var description, modality, capsJSON string
	var inPricing, outPricing sql.NullString

	err := row.Scan(&m.ID, &m.ProviderID, &m.ModelID, &m.DisplayName, &description, &modality,
		&m.ContextLimit, &inPricing, &outPricing, &m.LatencyMs, &capsJSON, &m.Realtime, &m.Enabled)
	if err != nil {
		return nil, err
	}

	m.Description = description
	m.Modality = domain.Modality(modality)
	if err := json.Unmarshal([]byte(capsJSON), &m.Capabilities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model capabilities: %w", err)
	}
	if m.InputPricing, err = unmarshalPricing(inPricing); err != nil {
		return nil, err
	}
	if m.OutputPricing, err = unmarshalPricing(outPricing); err != nil {
		return nil, err
	}
	return &m, nil
}

// Voice rows follow the same natural-key upsert as models.

func (s *Store) UpsertVoices(ctx context.Context, voices []domain.Voice) error {
	if len(voices) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO voices (id, provider_id, voice_id, name, description, gender, locale,
	            language, accent, age, styles, sample_url, latency_ms, pricing, enabled)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT(provider_id, voice_id) DO UPDATE SET
	            name=excluded.name,
	            description=excluded.description,
	            gender=excluded.gender,
	            locale=excluded.locale,
	            language=excluded.language,
	            accent=excluded.accent,
	            age=excluded.age,
	            styles=excluded.styles,
	            sample_url=excluded.sample_url,
	            latency_ms=excluded.latency_ms,
	            pricing=excluded.pricing,
	            enabled=excluded.enabled`

	for _, v := range voices {
		pricing, err := marshalNullable(v.Pricing)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, query,
			v.ID, v.ProviderID, v.VoiceID, v.Name, v.Description, v.Gender, v.Locale,
			v.Language, v.Accent, v.Age, strings.Join(v.Styles, ","), v.SampleURL,
			v.LatencyMs, pricing, v.Enabled)
		if err != nil {
			return fmt.Errorf("failed to upsert voice %s: %w", v.VoiceID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetVoice(ctx context.Context, id string) (*domain.Voice, error) {
	query := voiceSelect + ` WHERE id = ?`

	v, err := scanVoice(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voice: %w", err)
	}
	return v, nil
}

func (s *Store) ListVoices(ctx context.Context, providerID string) ([]domain.Voice, error) {
	query := voiceSelect
	var args []any
	if providerID != "" {
		query += ` WHERE provider_id = ?`
		args = append(args, providerID)
	}
	query += ` ORDER BY provider_id, voice_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query voices: %w", err)
	}
	defer rows.Close()

	var voices []domain.Voice
	for rows.Next() {
		v, err := scanVoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voice: %w", err)
		}
		voices = append(voices, *v)
	}
	return voices, rows.Err()
}

func (s *Store) SetVoiceEnabled(ctx context.Context, providerID, voiceID string, enabled bool) error {
	query := `UPDATE voices SET enabled = ? WHERE provider_id = ? AND voice_id = ?`

	result, err := s.db.ExecContext(ctx, query, enabled, providerID, voiceID)
	if err != nil {
		return fmt.Errorf("failed to update voice: %w", err)
	}
	return requireRow(result)
}

const voiceSelect = `SELECT id, provider_id, voice_id, name, description, gender, locale,
	language, accent, age, styles, sample_url, latency_ms, pricing, enabled
	FROM voices`

func scanVoice(row rowScanner) (*domain.Voice, error) {
	var v domain.Voice
	var description, gender, accent, age, styles, sampleURL sql.NullString
	var pricing sql.NullString

	err := row.Scan(&v.ID, &v.ProviderID, &v.VoiceID, &v.Name, &description, &gender, &v.Locale,
		&v.Language, &accent, &age, &styles, &sampleURL, &v.LatencyMs, &pricing, &v.Enabled)
	if err != nil {
		return nil, err
	}

	v.Description = description.String
	v.Gender = gender.String
	v.Accent = accent.String
	v.Age = age.String
	v.SampleURL = sampleURL.String
	if styles.Valid && styles.String != "" {
		v.Styles = strings.Split(styles.String, ",")
	}
	if pricing.Valid && pricing.String != "" {
		var vp domain.VoicePricing
		if err := json.Unmarshal([]byte(pricing.String), &vp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal voice pricing: %w", err)
		}
		v.Pricing = &vp
	}
	return &v, nil
}

// Sync log (insert-only) and health (upsert by provider+endpoint)

func (s *Store) AppendSyncResult(ctx context.Context, r *domain.SyncResult) error {
	errsJSON, err := json.Marshal(r.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal sync errors: %w", err)
	}
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal sync metadata: %w", err)
	}

	query := `INSERT INTO provider_sync_logs
	            (provider_id, sync_type, status, started_at, completed_at, models_discovered, voices_discovered, errors, metadata)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		r.ProviderID, string(r.SyncType), string(r.Status), r.StartedAt, r.CompletedAt,
		r.ModelsDiscovered, r.VoicesDiscovered, string(errsJSON), string(meta))
	if err != nil {
		return fmt.Errorf("failed to append sync result: %w", err)
	}
	return nil
}

func (s *Store) ListSyncResults(ctx context.Context, providerID string, limit int) ([]*domain.SyncResult, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT provider_id, sync_type, status, started_at, completed_at,
	            models_discovered, voices_discovered, errors, metadata
	          FROM provider_sync_logs`
	var args []any
	if providerID != "" {
		query += ` WHERE provider_id = ?`
		args = append(args, providerID)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync results: %w", err)
	}
	defer rows.Close()

	var results []*domain.SyncResult
	for rows.Next() {
		var r domain.SyncResult
		var syncType, status string
		var errsJSON, meta sql.NullString

		if err := rows.Scan(&r.ProviderID, &syncType, &status, &r.StartedAt, &r.CompletedAt,
			&r.ModelsDiscovered, &r.VoicesDiscovered, &errsJSON, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan sync result: %w", err)
		}

		r.SyncType = domain.SyncType(syncType)
		r.Status = domain.SyncStatus(status)
		if errsJSON.Valid && errsJSON.String != "" {
			if err := json.Unmarshal([]byte(errsJSON.String), &r.Errors); err != nil {
				return nil, fmt.Errorf("failed to unmarshal sync errors: %w", err)
			}
		}
		if meta.Valid && meta.String != "" && meta.String != "null" {
			if err := json.Unmarshal([]byte(meta.String), &r.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal sync metadata: %w", err)
			}
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}

func (s *Store) SaveTestResult(ctx context.Context, r *domain.ProviderTestResult) error {
	query := `INSERT INTO provider_health (provider_id, endpoint, status_code, response_time_ms, healthy, error, checked_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT(provider_id, endpoint) DO UPDATE SET
	            status_code=excluded.status_code,
	            response_time_ms=excluded.response_time_ms,
	            healthy=excluded.healthy,
	            error=excluded.error,
	            checked_at=excluded.checked_at`

	_, err := s.db.ExecContext(ctx, query,
		r.ProviderID, r.Endpoint, r.StatusCode, r.ResponseTime.Milliseconds(),
		r.Healthy, r.Error, r.CheckedAt)
	if err != nil {
		return fmt.Errorf("failed to save test result: %w", err)
	}
	return nil
}

func (s *Store) ListTestResults(ctx context.Context, providerID string) ([]*domain.ProviderTestResult, error) {
	query := `SELECT provider_id, endpoint, status_code, response_time_ms, healthy, error, checked_at
	          FROM provider_health`
	var args []any
	if providerID != "" {
		query += ` WHERE provider_id = ?`
		args = append(args, providerID)
	}
	query += ` ORDER BY checked_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query test results: %w", err)
	}
	defer rows.Close()

	var results []*domain.ProviderTestResult
	for rows.Next() {
		var r domain.ProviderTestResult
		var responseMs int64
		var errMsg sql.NullString

		if err := rows.Scan(&r.ProviderID, &r.Endpoint, &r.StatusCode, &responseMs,
			&r.Healthy, &errMsg, &r.CheckedAt); err != nil {
			return nil, fmt.Errorf("failed to scan test result: %w", err)
		}

		r.ResponseTime = time.Duration(responseMs) * time.Millisecond
		r.Error = errMsg.String
		results = append(results, &r)
	}
	return results, rows.Err()
}

// Credential ciphertext storage backing the vault.

func (s *Store) PutCredential(ctx context.Context, providerID string, ciphertext []byte) error {
	query := `INSERT INTO provider_credentials (provider_id, ciphertext, updated_at)
	          VALUES (?, ?, ?)
	          ON CONFLICT(provider_id) DO UPDATE SET ciphertext=excluded.ciphertext, updated_at=excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query, providerID, ciphertext, time.Now())
	if err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

func (s *Store) GetCredential(ctx context.Context, providerID string) ([]byte, bool, error) {
	var ciphertext []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT ciphertext FROM provider_credentials WHERE provider_id = ?`, providerID).Scan(&ciphertext)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load credential: %w", err)
	}
	return ciphertext, true, nil
}

func (s *Store) DeleteCredential(ctx context.Context, providerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM provider_credentials WHERE provider_id = ?`, providerID)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

func marshalNullable(v any) (sql.NullString, error) {
	switch p := v.(type) {
	case *domain.TokenPricing:
		if p == nil {
			return sql.NullString{}, nil
		}
	case *domain.VoicePricing:
		if p == nil {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal pricing: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalPricing(col sql.NullString) (*domain.TokenPricing, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var p domain.TokenPricing
	if err := json.Unmarshal([]byte(col.String), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pricing: %w", err)
	}
	return &p, nil
}

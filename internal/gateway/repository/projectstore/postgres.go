package projectstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// The Postgres backend stores each record as a JSONB document keyed by
// session id. Merge-patch is read-modify-write inside one transaction;
// concurrent writers to the same session resolve last-write-wins, which
// matches the adapter contract.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS project_records (
	session_id TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL DEFAULT '',
	record     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS project_records_user_idx ON project_records (user_id);
`

func (s *Store) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, schemaSQL)
	})
	return s.schemaErr
}

func (s *Store) saveDB(ctx context.Context, sessionID string, patch Patch) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var raw []byte
	rec := Record{SessionID: sessionID}
	err = tx.QueryRowContext(ctx,
		`SELECT record FROM project_records WHERE session_id = $1 FOR UPDATE`,
		sessionID,
	).Scan(&raw)
	switch {
	case err == nil:
		if uerr := json.Unmarshal(raw, &rec); uerr != nil {
			return fmt.Errorf("projectstore: corrupt record %s: %w", sessionID, uerr)
		}
	case errors.Is(err, sql.ErrNoRows):
		// new record
	default:
		return err
	}
	rec.SessionID = sessionID
	patch.apply(&rec, s.now())

	out, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO project_records (session_id, user_id, record, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id)
		DO UPDATE SET user_id = EXCLUDED.user_id, record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`,
		sessionID, rec.UserID, out, rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) loadDB(ctx context.Context, sessionID string) (Record, bool, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Record{}, false, err
	}
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM project_records WHERE session_id = $1`,
		sessionID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, false, fmt.Errorf("projectstore: corrupt record %s: %w", sessionID, err)
	}
	return rec, true, nil
}

func (s *Store) deleteDB(ctx context.Context, sessionID string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM project_records WHERE session_id = $1`, sessionID)
	return err
}

func (s *Store) listByUserDB(ctx context.Context, userID string) ([]Record, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM project_records WHERE user_id = $1 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue // skip corrupt rows rather than failing the listing
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

package revocation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore persists the revocation list in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE subject_revocations (
//	    subject_id TEXT PRIMARY KEY,
//	    revoked_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE token_revocations (
//	    jti        TEXT PRIMARY KEY,
//	    revoked_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db        *sql.DB
	retention time.Duration
	clock     Clock
}

// PostgresStoreOption configures a PostgresStore.
type PostgresStoreOption func(*PostgresStore)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock Clock) PostgresStoreOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgresStore constructs a PostgreSQL-backed revocation list.
func NewPostgresStore(db *sql.DB, retention time.Duration, opts ...PostgresStoreOption) *PostgresStore {
	s := &PostgresStore{
		db:        db,
		retention: retention,
		clock:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *PostgresStore) RevokeSubject(ctx context.Context, subjectID string, at time.Time) error {
	if err := validateTimestamp(at); err != nil {
		return err
	}
	query := `
		INSERT INTO subject_revocations (subject_id, revoked_at)
		VALUES ($1, $2)
		ON CONFLICT (subject_id) DO UPDATE SET
			revoked_at = GREATEST(subject_revocations.revoked_at, EXCLUDED.revoked_at)
	`
	if _, err := s.db.ExecContext(ctx, query, subjectID, at); err != nil {
		return fmt.Errorf("revoke subject: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeToken(ctx context.Context, tokenID string, at time.Time) error {
	if tokenID == "" {
		return nil
	}
	if err := validateTimestamp(at); err != nil {
		return err
	}
	query := `
		INSERT INTO token_revocations (jti, revoked_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO UPDATE SET
			revoked_at = EXCLUDED.revoked_at
	`
	if _, err := s.db.ExecContext(ctx, query, tokenID, at); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsRevoked(ctx context.Context, subjectID, tokenID string, issuedAt int64) (bool, error) {
	start := s.clock()
	defer observeCheck(start)

	var revokedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT revoked_at FROM subject_revocations WHERE subject_id = $1`, subjectID,
	).Scan(&revokedAt)
	switch {
	case err == nil:
		if issuedAt <= revokedAt.UnixMilli() {
			return true, nil
		}
	case err != sql.ErrNoRows:
		return false, fmt.Errorf("check subject revocation: %w", err)
	}

	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM token_revocations WHERE jti = $1)`, tokenID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return exists, nil
}

// Prune deletes entries older than the retention window.
func (s *PostgresStore) Prune(ctx context.Context, now time.Time) error {
	cutoff := now.Add(-s.retention)
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM subject_revocations WHERE revoked_at < $1`, cutoff); err != nil {
		return fmt.Errorf("prune subject revocations: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM token_revocations WHERE revoked_at < $1`, cutoff); err != nil {
		return fmt.Errorf("prune token revocations: %w", err)
	}
	return nil
}

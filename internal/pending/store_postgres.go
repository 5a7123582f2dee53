package pending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hearth/internal/scope"
	"hearth/pkg/platform/sentinel"
)

// PostgresStore persists the request table in PostgreSQL for deployments
// where consent decisions must survive restarts and be shared between
// instances. The status compare-and-swap rides on a conditional UPDATE.
//
// Schema:
//
//	CREATE TABLE consent_requests (
//	    request_id      TEXT PRIMARY KEY,
//	    subject_id      TEXT NOT NULL,
//	    agent_id        TEXT NOT NULL,
//	    requested_scope TEXT NOT NULL,
//	    status          TEXT NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL,
//	    decided_at      TIMESTAMPTZ,
//	    ciphertext      BYTEA,
//	    iv              BYTEA,
//	    auth_tag        BYTEA
//	);
//	CREATE INDEX consent_requests_subject_idx ON consent_requests (subject_id);
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, req *Request) error {
	query := `
		INSERT INTO consent_requests (request_id, subject_id, agent_id, requested_scope, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (request_id) DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, query,
		req.RequestID, req.SubjectID, req.AgentID, req.RequestedScope.String(), string(req.Status), req.CreatedAt)
	if err != nil {
		return fmt.Errorf("create consent request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, requestID string) (*Request, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT request_id, subject_id, agent_id, requested_scope, status, created_at, decided_at, ciphertext, iv, auth_tag
		FROM consent_requests WHERE request_id = $1`, requestID)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get consent request: %w", err)
	}
	return req, nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID string) ([]*Request, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT request_id, subject_id, agent_id, requested_scope, status, created_at, decided_at, ciphertext, iv, auth_tag
		FROM consent_requests WHERE subject_id = $1 ORDER BY created_at DESC`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list consent requests: %w", err)
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consent request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Transition(ctx context.Context, requestID string, to Status, payload *ApprovalPayload, at time.Time) (*Request, error) {
	var ciphertext, iv, authTag []byte
	if payload != nil {
		ciphertext, iv, authTag = payload.Ciphertext, payload.IV, payload.AuthTag
	}
	// The WHERE status = 'pending' clause is the whole concurrency story:
	// exactly one racing transition matches the row.
	row := s.pool.QueryRow(ctx, `
		UPDATE consent_requests
		SET status = $2, decided_at = $3, ciphertext = $4, iv = $5, auth_tag = $6
		WHERE request_id = $1 AND status = 'pending'
		RETURNING request_id, subject_id, agent_id, requested_scope, status, created_at, decided_at, ciphertext, iv, auth_tag`,
		requestID, string(to), at, ciphertext, iv, authTag)
	req, err := scanRequest(row)
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transition consent request: %w", err)
	}

	// Distinguish "never existed" from "already decided".
	var status string
	err = s.pool.QueryRow(ctx,
		`SELECT status FROM consent_requests WHERE request_id = $1`, requestID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("transition consent request: %w", err)
	}
	return nil, sentinel.ErrInvalidState
}

func (s *PostgresStore) ExpirePendingBefore(ctx context.Context, cutoff time.Time, at time.Time) ([]*Request, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE consent_requests
		SET status = 'expired', decided_at = $2
		WHERE status = 'pending' AND created_at < $1
		RETURNING request_id, subject_id, agent_id, requested_scope, status, created_at, decided_at, ciphertext, iv, auth_tag`,
		cutoff, at)
	if err != nil {
		return nil, fmt.Errorf("expire pending requests: %w", err)
	}
	defer rows.Close()

	var expired []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired request: %w", err)
		}
		expired = append(expired, req)
	}
	return expired, rows.Err()
}

func (s *PostgresStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM consent_requests
		WHERE status <> 'pending' AND decided_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("gc terminal requests: %w", err)
	}
	return nil
}

func scanRequest(row pgx.Row) (*Request, error) {
	var (
		req        Request
		rawScope   string
		rawStatus  string
		decidedAt  *time.Time
		ciphertext []byte
		iv         []byte
		authTag    []byte
	)
	err := row.Scan(&req.RequestID, &req.SubjectID, &req.AgentID, &rawScope, &rawStatus,
		&req.CreatedAt, &decidedAt, &ciphertext, &iv, &authTag)
	if err != nil {
		return nil, err
	}
	req.RequestedScope = scope.Scope(rawScope)
	req.Status = Status(rawStatus)
	req.DecidedAt = decidedAt
	if len(ciphertext) > 0 {
		req.Payload = &ApprovalPayload{Ciphertext: ciphertext, IV: iv, AuthTag: authTag}
	}
	return &req, nil
}

package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema for the audit table. Applied out-of-band; kept here so ops and
// tests agree on the shape.
const Schema = `
CREATE TABLE IF NOT EXISTS forward_audit (
    id          UUID PRIMARY KEY,
    kind        TEXT NOT NULL,
    path        TEXT NOT NULL,
    status_code INTEGER NOT NULL,
    accepted    BOOLEAN NOT NULL,
    subject_id  TEXT NOT NULL DEFAULT '',
    message     TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL
);
`

// PostgresRepo appends audit events to Postgres via database/sql (pgx
// stdlib driver).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO forward_audit (id, kind, path, status_code, accepted, subject_id, message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, q,
		e.ID, string(e.Kind), e.Path, e.StatusCode, e.Accepted, e.SubjectID, e.Message, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert failed: %w", err)
	}
	return nil
}

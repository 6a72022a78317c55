package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "intake-triage/internal/domain/audit"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append inserts one audit entry, returning the sequence-assigned id
func (r *AuditRepository) Append(ctx context.Context, e *domain.Entry) (int64, error) {
	const q = `
INSERT INTO intake_audit
  (run_id, ts, source, classification, agent_data, actions, artifact_url)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id;
`
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		stringOrDash(e.RunID),
		ts,
		stringOrDash(e.Source),
		jsonOrEmpty(e.Classification),
		jsonOrEmpty(e.AgentData),
		jsonOrEmpty(e.Actions),
		e.ArtifactURL,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *AuditRepository) ListAll(ctx context.Context) ([]*domain.Entry, error) {
	const q = `
SELECT id, run_id, ts, source, classification, agent_data, actions, artifact_url
FROM intake_audit
ORDER BY id ASC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *AuditRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Entry, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, run_id, ts, source, classification, agent_data, actions, artifact_url
FROM intake_audit
ORDER BY id DESC
LIMIT $1 OFFSET $2;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *AuditRepository) Summary(ctx context.Context, sinceDays int) ([]domain.SourceSummary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().UTC().AddDate(0, 0, -sinceDays)

	const q = `
SELECT source, COUNT(*) AS total
FROM intake_audit
WHERE ts >= $1
GROUP BY source
ORDER BY source;
`
	rows, err := r.db.QueryContext(ctx, q, cut)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SourceSummary
	for rows.Next() {
		var s domain.SourceSummary
		if err := rows.Scan(&s.Source, &s.Total); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanEntries(rows *sql.Rows) ([]*domain.Entry, error) {
	var out []*domain.Entry
	for rows.Next() {
		var e domain.Entry
		var ts time.Time
		if err := rows.Scan(&e.ID, &e.RunID, &ts, &e.Source, &e.Classification, &e.AgentData, &e.Actions, &e.ArtifactURL); err != nil {
			return nil, err
		}
		e.Timestamp = ts
		out = append(out, &e)
	}
	return out, rows.Err()
}

func jsonOrEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "{}"
	}
	return s
}

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/escalation"
	"github.com/spec-kit/ticket-triage/internal/workflow"
)

// EscalationRepository encapsulates escalation persistence.
type EscalationRepository interface {
	Append(ctx context.Context, record domain.EscalationRecord) error
	List(ctx context.Context, limit, offset int) ([]escalation.Row, error)
	GetByID(ctx context.Context, id string) (*escalation.Row, error)
}

type escalationRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRepository instantiates repository.
func NewEscalationRepository(pool *pgxpool.Pool) EscalationRepository {
	return &escalationRepository{pool: pool}
}

func (r *escalationRepository) Append(ctx context.Context, record domain.EscalationRecord) error {
	const query = `
        INSERT INTO escalations (id, run_id, subject, description, final_category, failed_drafts, review_feedbacks, categories, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	categories, err := json.Marshal(record.Categories)
	if err != nil {
		return err
	}
	row := escalation.ToRow(record)
	_, err = r.pool.Exec(ctx, query,
		id,
		workflow.RunIDFromContext(ctx),
		row.Subject,
		row.Description,
		row.FinalCategory,
		row.FailedDrafts,
		row.ReviewFeedbacks,
		categories,
		createdAt,
	)
	return err
}

func (r *escalationRepository) List(ctx context.Context, limit, offset int) ([]escalation.Row, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id::text, subject, description, final_category, failed_drafts, review_feedbacks, created_at
        FROM escalations ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []escalation.Row{}
	for rows.Next() {
		row, err := scanEscalation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *row)
	}
	return out, rows.Err()
}

func (r *escalationRepository) GetByID(ctx context.Context, id string) (*escalation.Row, error) {
	const query = `
        SELECT id::text, subject, description, final_category, failed_drafts, review_feedbacks, created_at
        FROM escalations WHERE id=$1`
	return scanEscalation(r.pool.QueryRow(ctx, query, id))
}

func scanEscalation(row pgx.Row) (*escalation.Row, error) {
	var (
		out       escalation.Row
		createdAt time.Time
	)
	if err := row.Scan(
		&out.ID,
		&out.Subject,
		&out.Description,
		&out.FinalCategory,
		&out.FailedDrafts,
		&out.ReviewFeedbacks,
		&createdAt,
	); err != nil {
		return nil, err
	}
	out.CreatedAt = &createdAt
	return &out, nil
}

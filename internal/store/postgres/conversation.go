package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/trail/internal/domain"
)

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

func (r *ConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO conversations (id, tenant_id, title, awaiting_confirmation, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.TenantID, c.Title, c.AwaitingConfirmation, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("conversationRepo.Create: %w", err)
	}

	return nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Conversation, error) {
	var c domain.Conversation

	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, title, awaiting_confirmation, created_at, updated_at
		 FROM conversations WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(&c.ID, &c.TenantID, &c.Title, &c.AwaitingConfirmation, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("conversationRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("conversationRepo.GetByID: %w", err)
	}

	return &c, nil
}

func (r *ConversationRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.Conversation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, title, awaiting_confirmation, created_at, updated_at
		 FROM conversations WHERE tenant_id = $1 ORDER BY updated_at DESC
		 LIMIT 500`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("conversationRepo.List: %w", err)
	}
	defer rows.Close()

	var out []*domain.Conversation
	for rows.Next() {
		var c domain.Conversation

		err = rows.Scan(&c.ID, &c.TenantID, &c.Title, &c.AwaitingConfirmation, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("conversationRepo.List: scan: %w", err)
		}
		out = append(out, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("conversationRepo.List: rows: %w", err)
	}

	return out, nil
}

func (r *ConversationRepo) SetAwaitingConfirmation(ctx context.Context, tenantID, id uuid.UUID, awaiting bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE conversations SET awaiting_confirmation = $1, updated_at = now()
		 WHERE tenant_id = $2 AND id = $3`,
		awaiting, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("conversationRepo.SetAwaitingConfirmation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversationRepo.SetAwaitingConfirmation: %w", domain.ErrNotFound)
	}

	return nil
}

// Delete removes the conversation and, via ON DELETE CASCADE, its event
// log and summary.
func (r *ConversationRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM conversations WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("conversationRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversationRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

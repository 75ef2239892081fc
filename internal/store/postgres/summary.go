package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/trail/internal/domain"
)

type SummaryRepo struct {
	pool *pgxpool.Pool
}

func NewSummaryRepo(pool *pgxpool.Pool) *SummaryRepo {
	return &SummaryRepo{pool: pool}
}

// Upsert stores the latest summarization run for a conversation. Each
// conversation keeps exactly one summary; re-summarizing replaces it.
func (r *SummaryRepo) Upsert(ctx context.Context, s *domain.ConversationSummary) error {
	segments, err := json.Marshal(s.Segments)
	if err != nil {
		return fmt.Errorf("summaryRepo.Upsert: marshal segments: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO conversation_summaries (conversation_id, tenant_id, overall_summary, segments, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (conversation_id)
		 DO UPDATE SET overall_summary = EXCLUDED.overall_summary, segments = EXCLUDED.segments, created_at = EXCLUDED.created_at`,
		s.ConversationID, s.TenantID, s.OverallSummary, segments, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("summaryRepo.Upsert: %w", err)
	}

	return nil
}

func (r *SummaryRepo) GetByConversation(ctx context.Context, tenantID, conversationID uuid.UUID) (*domain.ConversationSummary, error) {
	var (
		s   domain.ConversationSummary
		raw []byte
	)

	err := r.pool.QueryRow(ctx,
		`SELECT conversation_id, tenant_id, overall_summary, segments, created_at
		 FROM conversation_summaries WHERE tenant_id = $1 AND conversation_id = $2`,
		tenantID, conversationID,
	).Scan(&s.ConversationID, &s.TenantID, &s.OverallSummary, &raw, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("summaryRepo.GetByConversation: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("summaryRepo.GetByConversation: %w", err)
	}

	if err = json.Unmarshal(raw, &s.Segments); err != nil {
		return nil, fmt.Errorf("summaryRepo.GetByConversation: unmarshal segments: %w", err)
	}

	return &s, nil
}

func (r *SummaryRepo) DeleteByConversation(ctx context.Context, tenantID, conversationID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM conversation_summaries WHERE tenant_id = $1 AND conversation_id = $2`,
		tenantID, conversationID,
	)
	if err != nil {
		return fmt.Errorf("summaryRepo.DeleteByConversation: %w", err)
	}

	return nil
}

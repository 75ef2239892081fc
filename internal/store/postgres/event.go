package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/trail/internal/domain"
)

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// eventPayload holds the kind-specific event fields stored as one jsonb
// column. Identity and ordering columns stay relational.
type eventPayload struct {
	Action      string         `json:"action,omitempty"`
	Observation string         `json:"observation,omitempty"`
	Content     string         `json:"content,omitempty"`
	Thought     string         `json:"thought,omitempty"`
	CauseSeq    *int64         `json:"cause,omitempty"`
	ImageURLs   []string       `json:"image_urls,omitempty"`
	Extras      map[string]any `json:"extras,omitempty"`
}

// Append inserts the event with the next sequence id for its conversation
// and writes the assigned id back into e.Seq. The (conversation_id, seq)
// unique constraint rejects the losing side of a concurrent append race.
func (r *EventRepo) Append(ctx context.Context, tenantID uuid.UUID, e *domain.Event) error {
	payload, err := json.Marshal(eventPayload{
		Action:      e.Action,
		Observation: e.Observation,
		Content:     e.Content,
		Thought:     e.Thought,
		CauseSeq:    e.CauseSeq,
		ImageURLs:   e.ImageURLs,
		Extras:      e.Extras,
	})
	if err != nil {
		return fmt.Errorf("eventRepo.Append: marshal payload: %w", err)
	}

	var seq int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO conversation_events (conversation_id, tenant_id, seq, source, kind, event_ts, payload, created_at)
		 SELECT $1, $2, COALESCE(MAX(seq), 0) + 1, $3, $4, $5, $6, $7
		 FROM conversation_events WHERE conversation_id = $1
		 RETURNING seq`,
		e.ConversationID, tenantID, string(e.Source), string(e.Kind),
		nilIfEmpty(e.Timestamp), payload, e.CreatedAt,
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("eventRepo.Append: %w", err)
	}

	e.Seq = &seq
	return nil
}

func (r *EventRepo) ListByConversation(ctx context.Context, tenantID, conversationID uuid.UUID) ([]*domain.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT seq, source, kind, event_ts, payload, created_at
		 FROM conversation_events WHERE tenant_id = $1 AND conversation_id = $2
		 ORDER BY seq ASC`,
		tenantID, conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("eventRepo.ListByConversation: %w", err)
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		var (
			e       domain.Event
			seq     int64
			eventTS *string
			raw     []byte
		)

		err = rows.Scan(&seq, &e.Source, &e.Kind, &eventTS, &raw, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("eventRepo.ListByConversation: scan: %w", err)
		}

		var p eventPayload
		if err = json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("eventRepo.ListByConversation: unmarshal payload: %w", err)
		}

		e.Seq = &seq
		e.ConversationID = conversationID
		e.Timestamp = derefStr(eventTS)
		e.Action = p.Action
		e.Observation = p.Observation
		e.Content = p.Content
		e.Thought = p.Thought
		e.CauseSeq = p.CauseSeq
		e.ImageURLs = p.ImageURLs
		e.Extras = p.Extras

		out = append(out, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("eventRepo.ListByConversation: rows: %w", err)
	}

	return out, nil
}

func (r *EventRepo) CountByConversation(ctx context.Context, tenantID, conversationID uuid.UUID) (int64, error) {
	var count int64

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM conversation_events WHERE tenant_id = $1 AND conversation_id = $2`,
		tenantID, conversationID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("eventRepo.CountByConversation: %w", err)
	}

	return count, nil
}

package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Conversation is one agent session's transcript context. The event log,
// confirmation flag, and summary all hang off a conversation; deleting it
// discards the log.
type Conversation struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Title    string    `json:"title"`
	// AwaitingConfirmation is set by the runtime when the agent pauses for
	// user approval. The reconciler uses it to gate the confirmation prompt
	// on the final agent entry.
	AwaitingConfirmation bool      `json:"awaiting_confirmation"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type ConversationRepository interface {
	Create(ctx context.Context, c *Conversation) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Conversation, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*Conversation, error)
	SetAwaitingConfirmation(ctx context.Context, tenantID, id uuid.UUID, awaiting bool) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

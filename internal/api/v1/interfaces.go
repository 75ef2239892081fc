package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/trail/internal/domain"
	"github.com/gosuda/trail/internal/summarizer"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Users() domain.UserRepository
	Conversations() domain.ConversationRepository
	Events() domain.EventRepository
	Summaries() domain.SummaryRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, tenantID uuid.UUID, email, password string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	GenerateAPIKey(ctx context.Context, tenantID, userID uuid.UUID, name string) (string, *domain.APIKey, error)
}

// Summarizer abstracts the trajectory summarizer backend.
// *summarizer.Client satisfies this interface.
type Summarizer interface {
	Configured() bool
	Summarize(ctx context.Context, events []*domain.Event) (*summarizer.Summary, error)
}

// EventPublisher fans appended events out to live subscribers.
// *redis.PubSub satisfies this interface.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// ConfirmationNotifier pushes out-of-band confirmation alerts.
// *notify.Notifier satisfies this interface.
type ConfirmationNotifier interface {
	ConfirmationPending(ctx context.Context, conversationID uuid.UUID, title string) error
}

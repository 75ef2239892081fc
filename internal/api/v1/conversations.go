package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/trail/internal/domain"
	"github.com/gosuda/trail/internal/server/middleware"
	redisstore "github.com/gosuda/trail/internal/store/redis"
)

type CreateConversationInput struct {
	Body struct {
		Title string `json:"title,omitempty" maxLength:"500" doc:"Conversation title"`
	}
}

type CreateConversationOutput struct {
	Body *domain.Conversation
}

type ListConversationsOutput struct {
	Body []*domain.Conversation
}

type GetConversationInput struct {
	ID uuid.UUID `path:"id" doc:"Conversation ID"`
}

type GetConversationOutput struct {
	Body *domain.Conversation
}

type DeleteConversationInput struct {
	ID uuid.UUID `path:"id" doc:"Conversation ID"`
}

type SetConfirmationInput struct {
	ID   uuid.UUID `path:"id" doc:"Conversation ID"`
	Body struct {
		Awaiting bool `json:"awaiting" doc:"Whether the agent is waiting for user confirmation"`
	}
}

type SetConfirmationOutput struct {
	Body *domain.Conversation
}

func RegisterConversationRoutes(api huma.API, store DataStore, notifier ConfirmationNotifier, pub EventPublisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-conversation",
		Method:      http.MethodPost,
		Path:        "/conversations",
		Summary:     "Create a new conversation",
		Tags:        []string{"Conversations"},
	}, func(ctx context.Context, input *CreateConversationInput) (*CreateConversationOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing workspace context")
		}

		now := time.Now()
		c := &domain.Conversation{
			ID:        uuid.New(),
			TenantID:  tenantID,
			Title:     input.Body.Title,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := store.Conversations().Create(ctx, c); err != nil {
			return nil, huma.Error500InternalServerError("failed to create conversation", err)
		}

		return &CreateConversationOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-conversations",
		Method:      http.MethodGet,
		Path:        "/conversations",
		Summary:     "List conversations",
		Tags:        []string{"Conversations"},
	}, func(ctx context.Context, _ *struct{}) (*ListConversationsOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing workspace context")
		}

		conversations, err := store.Conversations().List(ctx, tenantID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list conversations", err)
		}

		return &ListConversationsOutput{Body: conversations}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-conversation",
		Method:      http.MethodGet,
		Path:        "/conversations/{id}",
		Summary:     "Get a conversation by ID",
		Tags:        []string{"Conversations"},
	}, func(ctx context.Context, input *GetConversationInput) (*GetConversationOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing workspace context")
		}

		c, err := store.Conversations().GetByID(ctx, tenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("conversation not found")
			}
			return nil, huma.Error500InternalServerError("failed to get conversation", err)
		}

		return &GetConversationOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-conversation",
		Method:      http.MethodDelete,
		Path:        "/conversations/{id}",
		Summary:     "Delete a conversation and its event log",
		Tags:        []string{"Conversations"},
	}, func(ctx context.Context, input *DeleteConversationInput) (*struct{}, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing workspace context")
		}

		if err := store.Conversations().Delete(ctx, tenantID, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("conversation not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete conversation", err)
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-confirmation",
		Method:      http.MethodPut,
		Path:        "/conversations/{id}/confirmation",
		Summary:     "Set or clear the awaiting-confirmation flag",
		Tags:        []string{"Conversations"},
	}, func(ctx context.Context, input *SetConfirmationInput) (*SetConfirmationOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing workspace context")
		}

		c, err := store.Conversations().GetByID(ctx, tenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("conversation not found")
			}
			return nil, huma.Error500InternalServerError("failed to get conversation", err)
		}

		wasAwaiting := c.AwaitingConfirmation

		if err := store.Conversations().SetAwaitingConfirmation(ctx, tenantID, input.ID, input.Body.Awaiting); err != nil {
			return nil, huma.Error500InternalServerError("failed to update confirmation flag", err)
		}

		c.AwaitingConfirmation = input.Body.Awaiting
		c.UpdatedAt = time.Now()

		// Notify only on the rising edge so a runtime re-asserting the flag
		// does not spam the channel.
		if input.Body.Awaiting && !wasAwaiting {
			if notifyErr := notifier.ConfirmationPending(ctx, c.ID, c.Title); notifyErr != nil {
				log.Warn().Err(notifyErr).Str("conversation_id", c.ID.String()).Msg("api: confirmation notification failed")
			}
		}

		// Live sockets re-gate the transcript on the new flag. Best-effort,
		// like event fan-out.
		if input.Body.Awaiting != wasAwaiting {
			payload, marshalErr := json.Marshal(redisstore.Frame{Confirmation: &input.Body.Awaiting})
			if marshalErr != nil {
				log.Error().Err(marshalErr).Msg("api: marshal confirmation frame")
			} else if pubErr := pub.Publish(ctx, redisstore.ConversationChannel(c.ID), payload); pubErr != nil {
				log.Warn().Err(pubErr).Str("conversation_id", c.ID.String()).Msg("api: confirmation publish failed")
			}
		}

		return &SetConfirmationOutput{Body: c}, nil
	})
}

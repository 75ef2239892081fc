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

type AppendEventInput struct {
	ConversationID uuid.UUID `path:"id" doc:"Conversation ID"`
	Body           struct {
		Source      domain.EventSource `json:"source" enum:"user,agent,environment" doc:"Event producer"`
		Kind        domain.EventKind   `json:"kind" enum:"message,action,observation,error" doc:"Event kind"`
		Timestamp   string             `json:"timestamp,omitempty" doc:"ISO-8601 timestamp as produced by the runtime"`
		Action      string             `json:"action,omitempty" doc:"Action name, kind=action"`
		Observation string             `json:"observation,omitempty" doc:"Observation name, kind=observation"`
		Content     string             `json:"content,omitempty" doc:"Human-readable content"`
		Thought     string             `json:"thought,omitempty" doc:"Agent reasoning attached to an action"`
		CauseSeq    *int64             `json:"cause,omitempty" doc:"Sequence id of the action this observation answers"`
		ImageURLs   []string           `json:"image_urls,omitempty" doc:"Attached image URLs"`
		Extras      map[string]any     `json:"extras,omitempty" doc:"Runtime-specific payload"`
	}
}

type AppendEventOutput struct {
	Body *domain.Event
}

type ListEventsInput struct {
	ConversationID uuid.UUID `path:"id" doc:"Conversation ID"`
}

type ListEventsOutput struct {
	Body []*domain.Event
}

func RegisterEventRoutes(api huma.API, store DataStore, pub EventPublisher) {
	huma.Register(api, huma.Operation{
		OperationID: "append-event",
		Method:      http.MethodPost,
		Path:        "/conversations/{id}/events",
		Summary:     "Append one event to a conversation's log",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *AppendEventInput) (*AppendEventOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing workspace context")
		}

		if _, err := store.Conversations().GetByID(ctx, tenantID, input.ConversationID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("conversation not found")
			}
			return nil, huma.Error500InternalServerError("failed to validate conversation", err)
		}

		e := &domain.Event{
			ConversationID: input.ConversationID,
			Source:         input.Body.Source,
			Kind:           input.Body.Kind,
			Timestamp:      input.Body.Timestamp,
			Action:         input.Body.Action,
			Observation:    input.Body.Observation,
			Content:        input.Body.Content,
			Thought:        input.Body.Thought,
			CauseSeq:       input.Body.CauseSeq,
			ImageURLs:      input.Body.ImageURLs,
			Extras:         input.Body.Extras,
			CreatedAt:      time.Now(),
		}

		// Append assigns the next monotonic sequence id under the store's
		// ordering guarantee; the log is never reordered after this point.
		if err := store.Events().Append(ctx, tenantID, e); err != nil {
			return nil, huma.Error500InternalServerError("failed to append event", err)
		}

		// Fan out to live subscribers. Delivery is best-effort: the log is
		// the source of truth and sockets reconcile from it on connect.
		payload, err := json.Marshal(redisstore.Frame{Event: e})
		if err != nil {
			log.Error().Err(err).Msg("api: marshal event for publish")
		} else if pubErr := pub.Publish(ctx, redisstore.ConversationChannel(input.ConversationID), payload); pubErr != nil {
			log.Warn().Err(pubErr).Str("conversation_id", input.ConversationID.String()).Msg("api: event publish failed")
		}

		return &AppendEventOutput{Body: e}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/conversations/{id}/events",
		Summary:     "Get the raw ordered event log",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing workspace context")
		}

		if _, err := store.Conversations().GetByID(ctx, tenantID, input.ConversationID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("conversation not found")
			}
			return nil, huma.Error500InternalServerError("failed to validate conversation", err)
		}

		events, err := store.Events().ListByConversation(ctx, tenantID, input.ConversationID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list events", err)
		}

		return &ListEventsOutput{Body: events}, nil
	})
}

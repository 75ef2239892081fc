package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/trail/internal/domain"
	"github.com/gosuda/trail/internal/server/middleware"
	"github.com/gosuda/trail/internal/transcript"
)

type GetTranscriptInput struct {
	ConversationID uuid.UUID `path:"id" doc:"Conversation ID"`
}

type GetTranscriptOutput struct {
	Body struct {
		Entries []transcript.Entry `json:"entries"`
		// AwaitingConfirmation is the flag the reconciler gated the
		// confirmation prompt on, so clients render consistently with it.
		AwaitingConfirmation bool `json:"awaiting_confirmation"`
	}
}

func RegisterTranscriptRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "get-transcript",
		Method:      http.MethodGet,
		Path:        "/conversations/{id}/transcript",
		Summary:     "Get the reconciled transcript",
		Description: "Projects the raw event log into ordered display entries: deduplicates, pairs actions with observations, isolates errors, and gates the confirmation prompt.",
		Tags:        []string{"Transcript"},
	}, func(ctx context.Context, input *GetTranscriptInput) (*GetTranscriptOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing workspace context")
		}

		c, err := store.Conversations().GetByID(ctx, tenantID, input.ConversationID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("conversation not found")
			}
			return nil, huma.Error500InternalServerError("failed to get conversation", err)
		}

		events, err := store.Events().ListByConversation(ctx, tenantID, input.ConversationID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list events", err)
		}

		entries := transcript.Reconcile(events, c.AwaitingConfirmation)

		out := &GetTranscriptOutput{}
		out.Body.Entries = entries
		out.Body.AwaitingConfirmation = c.AwaitingConfirmation
		return out, nil
	})
}

package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/trail/internal/domain"
	"github.com/gosuda/trail/internal/server/middleware"
	"github.com/gosuda/trail/internal/transcript"
)

type CreateSummaryInput struct {
	ConversationID uuid.UUID `path:"id" doc:"Conversation ID"`
}

type CreateSummaryOutput struct {
	Body *domain.ConversationSummary
}

type GetSummaryInput struct {
	ConversationID uuid.UUID `path:"id" doc:"Conversation ID"`
}

// ResolvedSegment pairs a stored segment with the event ids it resolved to
// against the current log. EventIDs may be empty when no strategy matched;
// that is a rendered state, not an error.
type ResolvedSegment struct {
	Segment  domain.SummarySegment `json:"segment"`
	EventIDs []int64               `json:"event_ids"`
}

type GetSummaryOutput struct {
	Body struct {
		OverallSummary string            `json:"overall_summary"`
		Segments       []ResolvedSegment `json:"segments"`
		// UnsummarizedIDs are identifiable events no segment references;
		// together with the segment references they cover the whole log.
		UnsummarizedIDs []int64   `json:"unsummarized_ids"`
		CreatedAt       time.Time `json:"created_at"`
	}
}

func RegisterSummaryRoutes(api huma.API, store DataStore, smz Summarizer) {
	huma.Register(api, huma.Operation{
		OperationID: "create-summary",
		Method:      http.MethodPost,
		Path:        "/conversations/{id}/summary",
		Summary:     "Summarize the conversation's event log",
		Tags:        []string{"Summaries"},
	}, func(ctx context.Context, input *CreateSummaryInput) (*CreateSummaryOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing workspace context")
		}

		if !smz.Configured() {
			return nil, huma.Error503ServiceUnavailable("summarizer backend not configured")
		}

		if _, err := store.Conversations().GetByID(ctx, tenantID, input.ConversationID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("conversation not found")
			}
			return nil, huma.Error500InternalServerError("failed to get conversation", err)
		}

		events, err := store.Events().ListByConversation(ctx, tenantID, input.ConversationID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list events", err)
		}
		if len(events) == 0 {
			return nil, huma.Error400BadRequest("conversation has no events to summarize")
		}

		result, err := smz.Summarize(ctx, events)
		if err != nil {
			return nil, huma.Error502BadGateway("summarizer backend failed", err)
		}

		summary := &domain.ConversationSummary{
			ConversationID: input.ConversationID,
			TenantID:       tenantID,
			OverallSummary: result.OverallSummary,
			Segments:       result.Segments,
			CreatedAt:      time.Now(),
		}

		if err := store.Summaries().Upsert(ctx, summary); err != nil {
			return nil, huma.Error500InternalServerError("failed to store summary", err)
		}

		return &CreateSummaryOutput{Body: summary}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-summary",
		Method:      http.MethodGet,
		Path:        "/conversations/{id}/summary",
		Summary:     "Get the stored summary with resolved segment events",
		Description: "Each segment's event references are resolved against the current log at read time; events no segment covers are returned in the unsummarized bucket.",
		Tags:        []string{"Summaries"},
	}, func(ctx context.Context, input *GetSummaryInput) (*GetSummaryOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing workspace context")
		}

		summary, err := store.Summaries().GetByConversation(ctx, tenantID, input.ConversationID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("summary not found")
			}
			return nil, huma.Error500InternalServerError("failed to get summary", err)
		}

		events, err := store.Events().ListByConversation(ctx, tenantID, input.ConversationID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list events", err)
		}

		segments := make([]ResolvedSegment, 0, len(summary.Segments))
		for i, seg := range summary.Segments {
			resolved := transcript.ResolveSegmentEvents(seg, events, i, len(summary.Segments))
			segments = append(segments, ResolvedSegment{
				Segment:  seg,
				EventIDs: eventSeqs(resolved),
			})
		}

		_, unsummarized := transcript.PartitionBySegments(summary.Segments, events)

		out := &GetSummaryOutput{}
		out.Body.OverallSummary = summary.OverallSummary
		out.Body.Segments = segments
		out.Body.UnsummarizedIDs = eventSeqs(unsummarized)
		out.Body.CreatedAt = summary.CreatedAt
		return out, nil
	})
}

// eventSeqs collects the sequence ids of identifiable events.
func eventSeqs(events []*domain.Event) []int64 {
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		if e.HasSeq() {
			ids = append(ids, *e.Seq)
		}
	}
	return ids
}

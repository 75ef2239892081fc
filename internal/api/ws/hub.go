// Package ws serves the live conversation sockets: a raw event feed and a
// continuously reconciled transcript, both fed from Redis pub/sub.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gosuda/trail/internal/domain"
	"github.com/gosuda/trail/internal/server/middleware"
	redisstore "github.com/gosuda/trail/internal/store/redis"
	"github.com/gosuda/trail/internal/transcript"
)

// Store is the subset of the data layer the sockets need to seed a session
// before going live.
type Store interface {
	Conversations() domain.ConversationRepository
	Events() domain.EventRepository
}

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	store  Store
	pubsub *redisstore.PubSub
}

func NewHub(store Store, pubsub *redisstore.PubSub) *Hub {
	return &Hub{store: store, pubsub: pubsub}
}

// transcriptFrame is what the transcript socket pushes after every
// reconciliation pass. It mirrors the REST transcript response so clients
// render both the same way.
type transcriptFrame struct {
	Entries              []transcript.Entry `json:"entries"`
	AwaitingConfirmation bool               `json:"awaiting_confirmation"`
}

// ServeEvents streams a conversation's appended events as they are
// published. Frames are forwarded verbatim; the client is expected to
// maintain its own log.
func (h *Hub) ServeEvents(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := h.admit(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws: accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	messages, cleanup, err := h.pubsub.Subscribe(ctx, redisstore.ConversationChannel(conversationID))
	if err != nil {
		log.Error().Err(err).Msg("ws: subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("ws: write")
				return
			}
		}
	}
}

// ServeTranscript keeps a reconciled transcript live for one conversation.
// The session subscribes before seeding from the store so nothing published
// in between is missed; the reconciler's dedupe absorbs the overlap. Every
// appended event or confirmation change triggers a full re-reconciliation
// and the new transcript is pushed whole.
func (h *Hub) ServeTranscript(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := h.admit(w, r)
	if !ok {
		return
	}

	tenantID, _ := middleware.TenantIDFromContext(r.Context())

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws: accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	messages, cleanup, err := h.pubsub.Subscribe(ctx, redisstore.ConversationChannel(conversationID))
	if err != nil {
		log.Error().Err(err).Msg("ws: subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	c, err := h.store.Conversations().GetByID(ctx, tenantID, conversationID)
	if err != nil {
		log.Error().Err(err).Msg("ws: load conversation")
		_ = conn.Close(websocket.StatusInternalError, "load failed")
		return
	}
	events, err := h.store.Events().ListByConversation(ctx, tenantID, conversationID)
	if err != nil {
		log.Error().Err(err).Msg("ws: load events")
		_ = conn.Close(websocket.StatusInternalError, "load failed")
		return
	}

	buf := transcript.NewBuffer()
	buf.Seed(events)
	awaiting := c.AwaitingConfirmation

	if err := pushTranscript(ctx, conn, buf, awaiting); err != nil {
		log.Debug().Err(err).Msg("ws: write")
		return
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}

			var frame redisstore.Frame
			if err := json.Unmarshal(msg, &frame); err != nil {
				log.Debug().Err(err).Msg("ws: malformed frame")
				continue
			}
			switch {
			case frame.Event != nil:
				buf.Append(frame.Event)
			case frame.Confirmation != nil:
				awaiting = *frame.Confirmation
			default:
				continue
			}

			if err := pushTranscript(ctx, conn, buf, awaiting); err != nil {
				log.Debug().Err(err).Msg("ws: write")
				return
			}
		}
	}
}

func pushTranscript(ctx context.Context, conn *websocket.Conn, buf *transcript.Buffer, awaiting bool) error {
	payload, err := json.Marshal(transcriptFrame{
		Entries:              transcript.Reconcile(buf.Snapshot(), awaiting),
		AwaitingConfirmation: awaiting,
	})
	if err != nil {
		return fmt.Errorf("ws.pushTranscript: marshal: %w", err)
	}
	return conn.Write(ctx, websocket.MessageText, payload)
}

// admit validates the request before the websocket upgrade: tenant context,
// a parseable conversation id, and that the conversation exists in the
// caller's workspace.
func (h *Hub) admit(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	tenantID, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing workspace", http.StatusForbidden)
		return uuid.Nil, false
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid conversation id", http.StatusBadRequest)
		return uuid.Nil, false
	}

	if _, err := h.store.Conversations().GetByID(r.Context(), tenantID, conversationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "conversation not found", http.StatusNotFound)
		} else {
			log.Error().Err(err).Msg("ws: conversation lookup")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return uuid.Nil, false
	}

	return conversationID, true
}

package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/trail/internal/api/v1"
	"github.com/gosuda/trail/internal/api/ws"
	"github.com/gosuda/trail/internal/auth"
	"github.com/gosuda/trail/internal/notify"
	"github.com/gosuda/trail/internal/store/postgres"
	redisstore "github.com/gosuda/trail/internal/store/redis"
	"github.com/gosuda/trail/internal/summarizer"
)

func registerAuthRoutes(api huma.API, authSvc *auth.Service) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, authSvc *auth.Service, smz *summarizer.Client, pubsub *redisstore.PubSub, notifier *notify.Notifier) {
	v1.RegisterConversationRoutes(api, store, notifier, pubsub)
	v1.RegisterEventRoutes(api, store, pubsub)
	v1.RegisterTranscriptRoutes(api, store)
	v1.RegisterSummaryRoutes(api, store, smz)
	v1.RegisterAPIKeyRoutes(api, store, authSvc)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/conversations/{id}/events", hub.ServeEvents)
	r.Get("/conversations/{id}/transcript", hub.ServeTranscript)
}

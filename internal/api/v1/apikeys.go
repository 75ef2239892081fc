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
)

type CreateAPIKeyInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"255" doc:"Key name, e.g. the runtime it belongs to"`
	}
}

// APIKeyView is the API key record without the hash.
type APIKeyView struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type CreateAPIKeyOutput struct {
	Body struct {
		// Key is the raw key, shown exactly once.
		Key    string     `json:"key"`
		Record APIKeyView `json:"record"`
	}
}

type ListAPIKeysOutput struct {
	Body []APIKeyView
}

type DeleteAPIKeyInput struct {
	ID uuid.UUID `path:"id" doc:"API key ID"`
}

func apiKeyView(k *domain.APIKey) APIKeyView {
	return APIKeyView{
		ID:         k.ID,
		Name:       k.Name,
		Prefix:     k.Prefix,
		LastUsedAt: k.LastUsedAt,
		ExpiresAt:  k.ExpiresAt,
		CreatedAt:  k.CreatedAt,
	}
}

func RegisterAPIKeyRoutes(api huma.API, store DataStore, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-api-key",
		Method:      http.MethodPost,
		Path:        "/apikeys",
		Summary:     "Create an API key for an agent runtime",
		Tags:        []string{"APIKeys"},
	}, func(ctx context.Context, input *CreateAPIKeyInput) (*CreateAPIKeyOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing workspace context")
		}
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		rawKey, key, err := authSvc.GenerateAPIKey(ctx, tenantID, userID, input.Body.Name)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to create API key", err)
		}

		out := &CreateAPIKeyOutput{}
		out.Body.Key = rawKey
		out.Body.Record = apiKeyView(key)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-api-keys",
		Method:      http.MethodGet,
		Path:        "/apikeys",
		Summary:     "List the caller's API keys",
		Tags:        []string{"APIKeys"},
	}, func(ctx context.Context, _ *struct{}) (*ListAPIKeysOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing workspace context")
		}
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		keys, err := store.Users().ListAPIKeys(ctx, tenantID, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list API keys", err)
		}

		views := make([]APIKeyView, 0, len(keys))
		for _, k := range keys {
			views = append(views, apiKeyView(k))
		}

		return &ListAPIKeysOutput{Body: views}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-api-key",
		Method:      http.MethodDelete,
		Path:        "/apikeys/{id}",
		Summary:     "Revoke an API key",
		Tags:        []string{"APIKeys"},
	}, func(ctx context.Context, input *DeleteAPIKeyInput) (*struct{}, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing workspace context")
		}
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		// Only the owner may revoke a key.
		keys, err := store.Users().ListAPIKeys(ctx, tenantID, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list API keys", err)
		}
		owned := false
		for _, k := range keys {
			if k.ID == input.ID {
				owned = true
				break
			}
		}
		if !owned {
			return nil, huma.Error404NotFound("API key not found")
		}

		if err := store.Users().DeleteAPIKey(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("API key not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete API key", err)
		}

		return nil, nil
	})
}

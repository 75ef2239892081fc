package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/trail/internal/api/v1"
	"github.com/gosuda/trail/internal/domain"
)

func TestCreateAPIKey(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		keyID := uuid.New()
		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			generateAPIKeyFunc: func(_ context.Context, tid, uid uuid.UUID, name string) (string, *domain.APIKey, error) {
				assert.Equal(t, tenantID, tid)
				assert.Equal(t, userID, uid)
				assert.Equal(t, "ci-runner", name)
				return "trail_deadbeefdeadbeefdeadbeefdeadbeef", &domain.APIKey{
					ID:        keyID,
					TenantID:  tid,
					UserID:    uid,
					Name:      name,
					Prefix:    "trail_de",
					KeyHash:   "hash",
					CreatedAt: time.Now(),
				}, nil
			},
		}
		v1.RegisterAPIKeyRoutes(api, &mockDataStore{users: &mockUserRepo{}}, authSvc)

		resp := api.PostCtx(userCtx(tenantID, userID), "/apikeys", map[string]any{
			"name": "ci-runner",
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			Key    string        `json:"key"`
			Record v1.APIKeyView `json:"record"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "trail_deadbeefdeadbeefdeadbeefdeadbeef", body.Key)
		assert.Equal(t, keyID, body.Record.ID)
		assert.Equal(t, "trail_de", body.Record.Prefix)
	})

	t.Run("missing_user", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterAPIKeyRoutes(api, &mockDataStore{users: &mockUserRepo{}}, &mockAuthService{})

		resp := api.PostCtx(tenantCtx(tenantID), "/apikeys", map[string]any{
			"name": "ci-runner",
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestListAPIKeys(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	userID := uuid.New()

	t.Run("happy_path_omits_hash", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			users: &mockUserRepo{
				listAPIKeysFunc: func(_ context.Context, tid, uid uuid.UUID) ([]*domain.APIKey, error) {
					assert.Equal(t, tenantID, tid)
					assert.Equal(t, userID, uid)
					return []*domain.APIKey{
						{ID: uuid.New(), Name: "laptop", Prefix: "trail_aa", KeyHash: "secret-hash"},
						{ID: uuid.New(), Name: "ci", Prefix: "trail_bb", KeyHash: "secret-hash"},
					}, nil
				},
			},
		}
		v1.RegisterAPIKeyRoutes(api, store, &mockAuthService{})

		resp := api.GetCtx(userCtx(tenantID, userID), "/apikeys")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.NotContains(t, resp.Body.String(), "secret-hash", "key hash must not leak")

		var body []v1.APIKeyView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 2)
		assert.Equal(t, "laptop", body[0].Name)
		assert.Equal(t, "ci", body[1].Name)
	})
}

func TestDeleteAPIKey(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	userID := uuid.New()
	keyID := uuid.New()

	t.Run("owner_can_revoke", func(t *testing.T) {
		t.Parallel()

		var deleted uuid.UUID
		_, api := humatest.New(t)
		store := &mockDataStore{
			users: &mockUserRepo{
				listAPIKeysFunc: func(context.Context, uuid.UUID, uuid.UUID) ([]*domain.APIKey, error) {
					return []*domain.APIKey{{ID: keyID, Name: "ci"}}, nil
				},
				deleteAPIKeyFunc: func(_ context.Context, id uuid.UUID) error {
					deleted = id
					return nil
				},
			},
		}
		v1.RegisterAPIKeyRoutes(api, store, &mockAuthService{})

		resp := api.DeleteCtx(userCtx(tenantID, userID), "/apikeys/"+keyID.String())

		assert.Equal(t, http.StatusNoContent, resp.Code)
		assert.Equal(t, keyID, deleted)
	})

	t.Run("not_owned_returns_404", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			users: &mockUserRepo{
				listAPIKeysFunc: func(context.Context, uuid.UUID, uuid.UUID) ([]*domain.APIKey, error) {
					return []*domain.APIKey{{ID: uuid.New(), Name: "someone-elses"}}, nil
				},
				deleteAPIKeyFunc: func(context.Context, uuid.UUID) error {
					t.Fatal("delete must not be called for a key the caller does not own")
					return nil
				},
			},
		}
		v1.RegisterAPIKeyRoutes(api, store, &mockAuthService{})

		resp := api.DeleteCtx(userCtx(tenantID, userID), "/apikeys/"+keyID.String())

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

package summarizer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/trail/internal/domain"
	"github.com/gosuda/trail/internal/summarizer"
)

func seq(n int64) *int64 { return &n }

func TestClient_Summarize(t *testing.T) {
	t.Parallel()

	var gotBody struct {
		Trajectory []map[string]any `json:"trajectory"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/summarize", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_, _ = w.Write([]byte("```json\n{\"overall_summary\":\"did things\",\"segments\":[{\"title\":\"s\",\"ids\":[1,2]}]}\n```"))
	}))
	defer srv.Close()

	client := summarizer.NewClient(srv.URL, 5*time.Second)

	events := []*domain.Event{
		{Seq: seq(1), Source: domain.SourceUser, Kind: domain.KindMessage, Content: "hi", Timestamp: "2026-03-01T14:00:00Z"},
		{Seq: seq(2), Source: domain.SourceAgent, Kind: domain.KindAction, Action: "run", Thought: "try the tests"},
		{Source: domain.SourceAgent, Kind: domain.KindMessage, Content: "no id, no timestamp"},
	}

	got, err := client.Summarize(context.Background(), events)
	require.NoError(t, err)
	assert.Equal(t, "did things", got.OverallSummary)
	require.Len(t, got.Segments, 1)
	assert.Equal(t, []int64{1, 2}, got.Segments[0].IDs)

	// The unidentifiable event is not sent; the thought rides along as the
	// agent message.
	require.Len(t, gotBody.Trajectory, 2)
	assert.Equal(t, "try the tests", gotBody.Trajectory[1]["message"])
}

func TestClient_SummarizeDegradesOnUnparseableResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("the model rambled instead of emitting JSON"))
	}))
	defer srv.Close()

	client := summarizer.NewClient(srv.URL, 5*time.Second)
	got, err := client.Summarize(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got.OverallSummary)
	assert.Empty(t, got.Segments)
}

func TestClient_SummarizeServiceError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := summarizer.NewClient(srv.URL, 5*time.Second)
	_, err := client.Summarize(context.Background(), nil)
	require.Error(t, err)
}

func TestClient_NotConfigured(t *testing.T) {
	t.Parallel()

	client := summarizer.NewClient("", time.Second)
	assert.False(t, client.Configured())

	_, err := client.Summarize(context.Background(), nil)
	require.ErrorIs(t, err, summarizer.ErrNotConfigured)
}

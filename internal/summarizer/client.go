// Package summarizer calls the external trajectory summarization service
// and normalizes its responses. The service is consumed on demand, never
// streamed; a failed or malformed response degrades to an empty summary
// rather than failing the conversation.
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/trail/internal/domain"
)

// maxResponseBytes caps how much of the summarizer response is read.
const maxResponseBytes = 4 << 20

// Client talks to the summarization service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a summarizer endpoint was set. An
// unconfigured client refuses Summarize calls instead of dialing nowhere.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// trajectoryItem is the compact event representation sent for
// summarization: only the fields the summarizer needs, with empty values
// omitted to keep the prompt small.
type trajectoryItem struct {
	ID          *int64 `json:"id,omitempty"`
	Source      string `json:"source"`
	Action      string `json:"action,omitempty"`
	Observation string `json:"observation,omitempty"`
	Content     string `json:"content,omitempty"`
	Message     string `json:"message,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Summarize sends the conversation's event log to the summarization
// service and returns the normalized result. A response that cannot be
// parsed degrades to an empty summary; only transport-level failures
// surface as errors.
func (c *Client) Summarize(ctx context.Context, events []*domain.Event) (*Summary, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("summarizer.Summarize: %w", ErrNotConfigured)
	}

	body, err := json.Marshal(map[string]any{
		"trajectory": preprocess(events),
	})
	if err != nil {
		return nil, fmt.Errorf("summarizer.Summarize: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/summarize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("summarizer.Summarize: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("summarizer.Summarize: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("summarizer.Summarize: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("summarizer.Summarize: service returned %d", resp.StatusCode)
	}

	summary, err := ParseResponse(string(raw))
	if err != nil {
		log.Warn().Err(err).Msg("summarizer response unparseable, degrading to empty summary")
		return &Summary{}, nil
	}

	return summary, nil
}

// preprocess reduces events to the fields worth summarizing, mirroring
// what the service expects. Events with neither an id nor a timestamp
// carry nothing referencable and are skipped.
func preprocess(events []*domain.Event) []trajectoryItem {
	items := make([]trajectoryItem, 0, len(events))

	for _, e := range events {
		if e == nil {
			continue
		}
		if !e.HasSeq() && e.Timestamp == "" {
			continue
		}

		item := trajectoryItem{
			ID:          e.Seq,
			Source:      string(e.Source),
			Action:      e.Action,
			Observation: e.Observation,
			Content:     e.Content,
			Timestamp:   e.Timestamp,
		}
		// The thought doubles as the agent's message when it differs from
		// the content.
		if e.Thought != "" && e.Thought != e.Content {
			item.Message = e.Thought
		}

		items = append(items, item)
	}

	return items
}

// Package publisher forwards snapshots to a remote collector endpoint.
// It is optional: the agent runs self-contained when no collector URL
// is configured.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mlrig/hwmon/internal/domain"
	"github.com/mlrig/hwmon/internal/hub"
)

const (
	apiKeyHeader    = "X-API-Key"
	applicationJSON = "application/json"
)

type Publisher struct {
	url     string
	apiKey  string
	agentID string
	http    *retryablehttp.Client
	logger  *slog.Logger
}

func New(url, apiKey, agentID string, logger *slog.Logger) *Publisher {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil

	return &Publisher{
		url:     url,
		apiKey:  apiKey,
		agentID: agentID,
		http:    client,
		logger:  logger,
	}
}

type payload struct {
	AgentID  string          `json:"agent_id"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// Run consumes snapshots from the hub subscription until the context is
// cancelled or the hub drops the subscription. Send failures are logged
// and do not stop the loop.
func (p *Publisher) Run(ctx context.Context, sub *hub.Subscription) {
	p.logger.Info("publisher starting", "url", p.url)
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-sub.C:
			if !ok {
				p.logger.Warn("publisher subscription dropped")
				return
			}
			if err := p.send(ctx, snap); err != nil {
				p.logger.Warn("failed to send snapshot", "error", err)
			}
		}
	}
}

func (p *Publisher) send(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(payload{AgentID: p.agentID, Snapshot: snap})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", applicationJSON)
	if p.apiKey != "" {
		req.Header.Set(apiKeyHeader, p.apiKey)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("collector returned %d", resp.StatusCode)
	}
	return nil
}

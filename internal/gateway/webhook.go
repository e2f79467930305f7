// Package gateway holds the coordinator's side of the contract with the
// conversation layer: pushing requests to operator views, retracting them,
// and notifying customers. The conversation layer itself lives outside this
// repository.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/houssin11/houssin9098/internal/domain"
)

// Webhook delivers gateway calls to the conversation layer over HTTP.
type Webhook struct {
	baseURL string
	client  *http.Client
}

func NewWebhook(baseURL string) *Webhook {
	return &Webhook{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *Webhook) PushRequest(ctx context.Context, operatorChannel int64, req domain.Request) (string, error) {
	payload := map[string]any{
		"operator_channel": operatorChannel,
		"request_id":       req.ID,
		"owner_id":         req.OwnerID,
		"kind":             req.Kind,
		"amount":           req.Amount,
		"fields":           req.Fields,
	}

	var resp struct {
		MessageRef string `json:"message_ref"`
	}
	if err := g.post(ctx, "/operator/push", payload, &resp); err != nil {
		return "", err
	}
	if resp.MessageRef == "" {
		return "", fmt.Errorf("push request: collaborator returned no message ref")
	}
	return resp.MessageRef, nil
}

func (g *Webhook) DisableView(ctx context.Context, ref domain.DeliveryRef) error {
	return g.post(ctx, "/operator/disable", map[string]any{
		"operator_channel": ref.OperatorChannel,
		"message_ref":      ref.MessageRef,
	}, nil)
}

func (g *Webhook) MarkLocked(ctx context.Context, ref domain.DeliveryRef, operatorLabel string) error {
	return g.post(ctx, "/operator/lock", map[string]any{
		"operator_channel": ref.OperatorChannel,
		"message_ref":      ref.MessageRef,
		"operator_label":   operatorLabel,
	}, nil)
}

func (g *Webhook) Notify(ctx context.Context, ownerID int64, message string) error {
	return g.post(ctx, "/customer/notify", map[string]any{
		"owner_id": ownerID,
		"message":  message,
	}, nil)
}

// DepositSettled asks the conversation layer to release its local deposit
// guard for the owner.
func (g *Webhook) DepositSettled(ctx context.Context, ownerID int64) error {
	return g.post(ctx, "/customer/deposit_settled", map[string]any{
		"owner_id": ownerID,
	}, nil)
}

func (g *Webhook) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook %s: status %d", path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode webhook %s response: %w", path, err)
		}
	}
	return nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"rental-contracts-backend/internal/domain"
)

// NoopRenderer issues a deterministic receipt reference without producing a document.
type NoopRenderer struct{}

func (NoopRenderer) RenderReceipt(ctx context.Context, inv *domain.Invoice) (string, error) {
	return "rcpt-" + inv.Serial, nil
}

// HTTPRenderer posts the invoice to an external rendering service and
// returns the receipt reference it answers with.
type HTTPRenderer struct {
	url    string
	client *http.Client
}

func NewHTTPRenderer(url string, timeout time.Duration) *HTTPRenderer {
	return &HTTPRenderer{url: url, client: &http.Client{Timeout: timeout}}
}

type renderRequest struct {
	Kind    string          `json:"kind"`
	Invoice *domain.Invoice `json:"invoice"`
}

type renderResponse struct {
	ReceiptRef string `json:"receiptRef"`
}

func (r *HTTPRenderer) RenderReceipt(ctx context.Context, inv *domain.Invoice) (string, error) {
	body, err := json.Marshal(renderRequest{Kind: "receipt", Invoice: inv})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("renderer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("renderer error: status %d", resp.StatusCode)
	}
	var out renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode renderer response: %w", err)
	}
	if out.ReceiptRef == "" {
		return "", fmt.Errorf("renderer returned an empty receipt reference")
	}
	return out.ReceiptRef, nil
}

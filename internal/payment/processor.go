// Package payment adapts the external card processor's confirm API to the
// checkout port. The card itself is tokenized inside the processor's widget;
// this side only forwards the client secret and billing details.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/avelis/shopfront/internal/domain"
)

type Processor struct {
	baseURL string
	http    *http.Client
}

func NewProcessor(baseURL string, timeout time.Duration) *Processor {
	return &Processor{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type confirmRequestDTO struct {
	ClientSecret   string            `json:"client_secret"`
	BillingDetails billingDetailsDTO `json:"billing_details"`
}

type billingDetailsDTO struct {
	Email      string `json:"email"`
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

type confirmResponseDTO struct {
	Status string `json:"status"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ConfirmCharge completes the charge for a payment intent. A decline comes
// back as an error carrying the processor's message verbatim.
func (p *Processor) ConfirmCharge(ctx context.Context, clientSecret string, details domain.BillingDetails) error {
	payload, err := json.Marshal(confirmRequestDTO{
		ClientSecret: clientSecret,
		BillingDetails: billingDetailsDTO{
			Email:      details.Email,
			Line1:      details.Street,
			City:       details.City,
			State:      details.State,
			PostalCode: details.PostalCode,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal confirm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/confirm", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build confirm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("confirm charge: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read confirm response: %w", err)
	}

	var result confirmResponseDTO
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("processor returned %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if result.Status == "succeeded" {
		return nil
	}
	if result.Error.Message != "" {
		return errors.New(result.Error.Message)
	}
	return fmt.Errorf("charge not completed, status %q", result.Status)
}

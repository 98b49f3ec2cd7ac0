package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
)

type PayPalConfig struct {
	ClientID  string
	Secret    string
	WebhookID string
	BaseURL   string
	ReturnURL string
	CancelURL string
	Timeout   time.Duration
}

type PayPal struct {
	cfg    PayPalConfig
	client *http.Client
}

func NewPayPal(cfg PayPalConfig) port.PaymentProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-m.paypal.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &PayPal{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *PayPal) Tag() domain.PaymentMethod {
	return domain.PaymentMethodPaypal
}

func (p *PayPal) Initiate(ctx context.Context, order domain.Order, _ []domain.CheckoutLine) (domain.CheckoutSession, error) {
	var zero domain.CheckoutSession

	token, err := p.accessToken(ctx)
	if err != nil {
		return zero, fmt.Errorf("p.accessToken: %w", err)
	}

	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"reference_id": order.ID.String(),
			"custom_id":    order.ID.String(),
			"amount": map[string]any{
				"currency_code": order.Total.Currency.String(),
				"value":         order.Total.Amount.StringFixed(2),
			},
		}},
		"application_context": map[string]any{
			"return_url": fmt.Sprintf("%s?order_id=%s", p.cfg.ReturnURL, order.ID),
			"cancel_url": p.cfg.CancelURL,
		},
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return zero, fmt.Errorf("json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v2/checkout/orders", bytes.NewReader(encoded))
	if err != nil {
		return zero, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("client.Do: %w", err)
	}

	var out struct {
		ID    string `json:"id"`
		Links []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}
	if err := decodeResponse(resp, &out); err != nil {
		return zero, fmt.Errorf("decodeResponse: %w", err)
	}

	session := domain.CheckoutSession{ID: out.ID}
	for _, link := range out.Links {
		if link.Rel == "approve" {
			session.RedirectURL = link.Href
		}
	}

	return session, nil
}

// VerifyCallback delegates authenticity to the provider's own
// verify-webhook-signature endpoint, then parses the event.
func (p *PayPal) VerifyCallback(ctx context.Context, payload []byte, header http.Header) (domain.ProviderEvent, error) {
	var zero domain.ProviderEvent

	token, err := p.accessToken(ctx)
	if err != nil {
		return zero, fmt.Errorf("p.accessToken: %w", err)
	}

	verification := map[string]any{
		"auth_algo":         header.Get("Paypal-Auth-Algo"),
		"cert_url":          header.Get("Paypal-Cert-Url"),
		"transmission_id":   header.Get("Paypal-Transmission-Id"),
		"transmission_sig":  header.Get("Paypal-Transmission-Sig"),
		"transmission_time": header.Get("Paypal-Transmission-Time"),
		"webhook_id":        p.cfg.WebhookID,
		"webhook_event":     json.RawMessage(payload),
	}

	encoded, err := json.Marshal(verification)
	if err != nil {
		return zero, fmt.Errorf("json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v1/notifications/verify-webhook-signature", bytes.NewReader(encoded))
	if err != nil {
		return zero, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("client.Do: %w", err)
	}

	var status struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := decodeResponse(resp, &status); err != nil {
		return zero, fmt.Errorf("decodeResponse: %w", err)
	}

	if status.VerificationStatus != "SUCCESS" {
		return zero, fmt.Errorf("verification status %q: %w", status.VerificationStatus, domain.ErrBadSignature)
	}

	var event struct {
		EventType string `json:"event_type"`
		Resource  struct {
			ID       string `json:"id"`
			CustomID string `json:"custom_id"`
		} `json:"resource"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return zero, fmt.Errorf("json.Unmarshal: %w", err)
	}

	orderID, err := uuid.Parse(event.Resource.CustomID)
	if err != nil {
		return zero, nil
	}

	switch event.EventType {
	case "PAYMENT.CAPTURE.COMPLETED", "CHECKOUT.ORDER.APPROVED":
		return domain.ProviderEvent{OrderID: orderID, ProviderTxID: event.Resource.ID, Succeeded: true}, nil

	case "PAYMENT.CAPTURE.DENIED", "PAYMENT.CAPTURE.DECLINED":
		return domain.ProviderEvent{OrderID: orderID, Reason: event.EventType}, nil
	}

	return zero, nil
}

func (p *PayPal) accessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.SetBasicAuth(p.cfg.ClientID, p.cfg.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("client.Do: %w", err)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := decodeResponse(resp, &out); err != nil {
		return "", fmt.Errorf("decodeResponse: %w", err)
	}

	return out.AccessToken, nil
}

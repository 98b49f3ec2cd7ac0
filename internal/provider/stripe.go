package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sfexams/store/internal/domain"
	"github.com/sfexams/store/internal/port"
)

// signatureTolerance bounds how old a webhook timestamp may be before the
// signature is rejected, limiting replay of captured payloads.
const signatureTolerance = 5 * time.Minute

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	SuccessURL    string
	CancelURL     string
	Timeout       time.Duration
}

type Stripe struct {
	cfg    StripeConfig
	client *http.Client
}

func NewStripe(cfg StripeConfig) port.PaymentProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stripe.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Stripe{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *Stripe) Tag() domain.PaymentMethod {
	return domain.PaymentMethodStripe
}

func (s *Stripe) Initiate(ctx context.Context, order domain.Order, lines []domain.CheckoutLine) (domain.CheckoutSession, error) {
	var zero domain.CheckoutSession

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", fmt.Sprintf("%s?session_id={CHECKOUT_SESSION_ID}&order_id=%s", s.cfg.SuccessURL, order.ID))
	form.Set("cancel_url", s.cfg.CancelURL)
	form.Set("metadata[order_id]", order.ID.String())

	for i, line := range lines {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", strings.ToLower(line.UnitPrice.Currency.String()))
		form.Set(prefix+"[price_data][product_data][name]", line.Name)
		form.Set(prefix+"[price_data][product_data][description]", line.Description)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(toCents(line.UnitPrice), 10))
		form.Set(prefix+"[quantity]", strconv.FormatInt(int64(line.Quantity), 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.BaseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return zero, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("client.Do: %w", err)
	}

	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := decodeResponse(resp, &out); err != nil {
		return zero, fmt.Errorf("decodeResponse: %w", err)
	}

	return domain.CheckoutSession{ID: out.ID, RedirectURL: out.URL}, nil
}

func (s *Stripe) VerifyCallback(_ context.Context, payload []byte, header http.Header) (domain.ProviderEvent, error) {
	var zero domain.ProviderEvent

	if err := s.verifySignature(payload, header.Get("Stripe-Signature")); err != nil {
		return zero, fmt.Errorf("s.verifySignature: %w", err)
	}

	var event struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID            string            `json:"id"`
				PaymentIntent string            `json:"payment_intent"`
				Metadata      map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return zero, fmt.Errorf("json.Unmarshal: %w", err)
	}

	orderID, err := uuid.Parse(event.Data.Object.Metadata["order_id"])
	if err != nil {
		// Event is authentic but carries no order correlation; nothing to do.
		return zero, nil
	}

	switch event.Type {
	case "checkout.session.completed":
		txID := event.Data.Object.PaymentIntent
		if txID == "" {
			txID = event.Data.Object.ID
		}
		return domain.ProviderEvent{OrderID: orderID, ProviderTxID: txID, Succeeded: true}, nil

	case "checkout.session.expired", "payment_intent.payment_failed":
		return domain.ProviderEvent{OrderID: orderID, Reason: event.Type}, nil
	}

	return zero, nil
}

// verifySignature checks the "t=<unix>,v1=<hex>" header scheme: an HMAC-SHA256
// of "<t>.<payload>" under the webhook secret.
func (s *Stripe) verifySignature(payload []byte, sigHeader string) error {
	var (
		timestamp  int64
		signatures [][]byte
	)

	for _, part := range strings.Split(sigHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}

		switch key {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("timestamp[%s]: %w", value, domain.ErrBadSignature)
			}
			timestamp = parsed
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("malformed header: %w", domain.ErrBadSignature)
	}

	if time.Since(time.Unix(timestamp, 0)) > signatureTolerance {
		return fmt.Errorf("timestamp too old: %w", domain.ErrBadSignature)
	}

	mac := hmac.New(sha256.New, []byte(s.cfg.WebhookSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(sig, expected) {
			return nil
		}
	}

	return domain.ErrBadSignature
}

func toCents(m domain.Money) int64 {
	return m.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

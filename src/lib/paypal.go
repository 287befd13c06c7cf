package lib

import (
	"agencia/src/config"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const tokenCacheKey = "paypal:access_token"

type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("paypal auth failed with status %d", e.Status)
}

// OrderCreateError keeps the gateway's raw error body so an operator can
// diagnose rejected orders; buyers only ever see a generic message.
type OrderCreateError struct {
	Status  int
	Details string
}

func (e *OrderCreateError) Error() string {
	return fmt.Sprintf("paypal order create rejected (status %d): %s", e.Status, e.Details)
}

// CaptureError carries a structured hint next to the gateway reason. The
// dominant failure here is a merchant mismatch: credentials for account A
// trying to capture an order created for account B.
type CaptureError struct {
	Reason string
	Hint   string
}

func (e *CaptureError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("capture failed: %s (%s)", e.Reason, e.Hint)
	}
	return fmt.Sprintf("capture failed: %s", e.Reason)
}

type OrderSnapshot struct {
	ID              string
	Status          string
	PayeeMerchantID string
}

type Capture struct {
	ID     string
	Status string
	Raw    json.RawMessage
}

type PayPalClient struct {
	cfg  *config.PayPalConfig
	http *http.Client
}

var paypalClient *PayPalClient

func GetPayPalClient() *PayPalClient {
	if paypalClient != nil {
		return paypalClient
	}
	c := NewPayPal(config.GetPayPalConfig())
	paypalClient = c
	return c
}

// NewPayPalClient replaces the shared instance, used by tests to point the
// client at a stub gateway.
func NewPayPalClient(c *PayPalClient) {
	paypalClient = c
}

func NewPayPal(cfg *config.PayPalConfig) *PayPalClient {
	return &PayPalClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *PayPalClient) Config() *config.PayPalConfig {
	return c.cfg
}

// GetAccessToken runs the client-credentials exchange. When Redis is
// around the token is shared across workers with a TTL shaved under the
// gateway's expiry; without Redis every call fetches fresh.
func (c *PayPalClient) GetAccessToken(ctx context.Context) (string, error) {
	if rd := GetRedisClient(); rd != nil {
		cached := rd.Get(ctx, tokenCacheKey).Val()
		if cached != "" {
			return cached, nil
		}
	}
	return c.fetchAccessToken(ctx)
}

func (c *PayPalClient) fetchAccessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	var lastStatus int
	var lastBody []byte
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff(ctx, attempt)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
		if err != nil {
			return "", err
		}
		req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		res, err := c.http.Do(req)
		if err != nil {
			log.Printf("[paypal] token request failed: %s\n", err.Error())
			lastStatus, lastBody = 0, nil
			continue
		}
		body, _ := io.ReadAll(res.Body)
		res.Body.Close()
		if res.StatusCode == http.StatusOK {
			token := gjson.GetBytes(body, "access_token").String()
			if token == "" {
				return "", &AuthError{Status: res.StatusCode, Body: "token missing from response"}
			}
			ttl := time.Duration(gjson.GetBytes(body, "expires_in").Int()) * time.Second
			c.cacheToken(ctx, token, ttl)
			return token, nil
		}
		lastStatus, lastBody = res.StatusCode, body
		if !retryable(res.StatusCode) {
			break
		}
		if attempt < c.cfg.MaxRetries {
			log.Printf("[paypal] token endpoint returned %d, retrying\n", res.StatusCode)
		}
	}
	return "", &AuthError{Status: lastStatus, Body: string(lastBody)}
}

func (c *PayPalClient) cacheToken(ctx context.Context, token string, ttl time.Duration) {
	rd := GetRedisClient()
	if rd == nil || ttl <= time.Minute {
		return
	}
	// expire a minute early so no worker ever holds a token at the edge
	if err := rd.Set(ctx, tokenCacheKey, token, ttl-time.Minute).Err(); err != nil {
		log.Printf("[paypal] could not cache access token: %s\n", err.Error())
	}
}

func (c *PayPalClient) invalidateToken(ctx context.Context) {
	if rd := GetRedisClient(); rd != nil {
		rd.Del(ctx, tokenCacheKey)
	}
}

// WarmAccessToken pre-populates the token cache, called from the
// scheduler so request paths rarely pay the exchange round trip.
func (c *PayPalClient) WarmAccessToken() {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()
	if _, err := c.fetchAccessToken(ctx); err != nil {
		log.Printf("[paypal] token warm-up failed: %s\n", err.Error())
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func backoff(ctx context.Context, attempt int) {
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
	}
}

// call issues an authenticated API request. Idempotent calls are retried
// on 429/5xx up to the configured count; order creation and capture
// submission always run exactly once, a blind retry can double-charge.
func (c *PayPalClient) call(ctx context.Context, method, path string, payload []byte, idempotent bool) (int, []byte, error) {
	token, err := c.GetAccessToken(ctx)
	if err != nil {
		return 0, nil, err
	}
	attempts := 1
	if idempotent {
		attempts = c.cfg.MaxRetries + 1
	}
	var status int
	var body []byte
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff(ctx, attempt)
		}
		status, body, err = c.once(ctx, method, path, payload, token)
		if err != nil {
			if !idempotent {
				return 0, nil, err
			}
			continue
		}
		if status == http.StatusUnauthorized {
			// cached token went stale, fetch fresh and replay once
			c.invalidateToken(ctx)
			token, err = c.fetchAccessToken(ctx)
			if err != nil {
				return 0, nil, err
			}
			status, body, err = c.once(ctx, method, path, payload, token)
			if err != nil {
				return 0, nil, err
			}
		}
		if !retryable(status) || !idempotent {
			return status, body, nil
		}
		if attempt+1 < attempts {
			log.Printf("[paypal] %s %s returned %d, retrying\n", method, path, status)
		}
	}
	if err != nil {
		return 0, nil, err
	}
	return status, body, nil
}

func (c *PayPalClient) once(ctx context.Context, method, path string, payload []byte, token string) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, nil, err
	}
	return res.StatusCode, body, nil
}

// CreateOrder registers a CAPTURE-intent order for the given amount and
// returns the gateway-assigned order id. Never retried.
func (c *PayPalClient) CreateOrder(ctx context.Context, amount, currency, description string) (string, error) {
	payload, _ := json.Marshal(map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"description": description,
				"amount": map[string]string{
					"currency_code": currency,
					"value":         amount,
				},
			},
		},
	})
	status, body, err := c.call(ctx, http.MethodPost, "/v2/checkout/orders", payload, false)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		log.Printf("[paypal] order create rejected (%d): %s\n", status, string(body))
		return "", &OrderCreateError{Status: status, Details: errorDetails(body)}
	}
	id := gjson.GetBytes(body, "id").String()
	if id == "" {
		return "", &OrderCreateError{Status: status, Details: "order id missing from response"}
	}
	return id, nil
}

// GetOrder is a read-only lookup used for diagnostics and to decide
// whether a capture is still pending.
func (c *PayPalClient) GetOrder(ctx context.Context, orderID string) (*OrderSnapshot, error) {
	status, body, err := c.call(ctx, http.MethodGet, "/v2/checkout/orders/"+orderID, nil, true)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("paypal order lookup returned %d: %s", status, errorDetails(body))
	}
	return &OrderSnapshot{
		ID:              gjson.GetBytes(body, "id").String(),
		Status:          gjson.GetBytes(body, "status").String(),
		PayeeMerchantID: gjson.GetBytes(body, "purchase_units.0.payee.merchant_id").String(),
	}, nil
}

// CaptureOrder collects the funds for an approved order. Never retried by
// the transport layer; the caller decides whether to prompt the buyer
// again. On failure the payee of the order is compared with the
// configured merchant account and the mismatch surfaced in the hint.
func (c *PayPalClient) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	status, body, err := c.call(ctx, http.MethodPost, "/v2/checkout/orders/"+orderID+"/capture", []byte("{}"), false)
	if err != nil {
		return nil, &CaptureError{Reason: err.Error()}
	}
	if status != http.StatusCreated && status != http.StatusOK {
		reason := errorDetails(body)
		log.Printf("[paypal] capture of %s rejected (%d): %s\n", orderID, status, string(body))
		return nil, &CaptureError{Reason: reason, Hint: c.captureHint(ctx, orderID)}
	}
	capture := &Capture{
		ID:     gjson.GetBytes(body, "purchase_units.0.payments.captures.0.id").String(),
		Status: gjson.GetBytes(body, "purchase_units.0.payments.captures.0.status").String(),
		Raw:    json.RawMessage(body),
	}
	if capture.ID == "" {
		capture.ID = gjson.GetBytes(body, "id").String()
	}
	if capture.Status == "" {
		capture.Status = gjson.GetBytes(body, "status").String()
	}
	return capture, nil
}

func (c *PayPalClient) captureHint(ctx context.Context, orderID string) string {
	snap, err := c.GetOrder(ctx, orderID)
	if err != nil {
		log.Printf("[paypal] could not fetch order %s for diagnostics: %s\n", orderID, err.Error())
		return ""
	}
	if snap.PayeeMerchantID != "" && c.cfg.MerchantID != "" && snap.PayeeMerchantID != c.cfg.MerchantID {
		return fmt.Sprintf("order payee is merchant %s but the configured credentials belong to merchant %s; check PAYPAL_CLIENT_ID against the account that created the order", snap.PayeeMerchantID, c.cfg.MerchantID)
	}
	return fmt.Sprintf("order %s is in status %s", snap.ID, snap.Status)
}

// VerifyCapture re-fetches a capture by id and reports whether the funds
// were actually collected. It is the gate in front of reservation
// persistence, so any ambiguity (network failure, unknown id, pending
// status) comes back as false rather than an error.
func (c *PayPalClient) VerifyCapture(ctx context.Context, captureID string) bool {
	if captureID == "" {
		return false
	}
	status, body, err := c.call(ctx, http.MethodGet, "/v2/payments/captures/"+captureID, nil, true)
	if err != nil {
		log.Printf("[paypal] capture verification for %s errored: %s\n", captureID, err.Error())
		return false
	}
	if status != http.StatusOK {
		log.Printf("[paypal] capture verification for %s returned %d\n", captureID, status)
		return false
	}
	return gjson.GetBytes(body, "status").String() == "COMPLETED"
}

func errorDetails(body []byte) string {
	if !gjson.ValidBytes(body) {
		return string(body)
	}
	issue := gjson.GetBytes(body, "details.0.issue").String()
	desc := gjson.GetBytes(body, "details.0.description").String()
	if issue != "" {
		if desc != "" {
			return fmt.Sprintf("%s: %s", issue, desc)
		}
		return issue
	}
	if name := gjson.GetBytes(body, "name").String(); name != "" {
		return fmt.Sprintf("%s: %s", name, gjson.GetBytes(body, "message").String())
	}
	return string(body)
}

// IsTimeout reports whether the gateway call died on a deadline, so
// handlers can tell the buyer to simply try again.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

package lib

import (
	"agencia/src/config"
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testConfig(baseURL string) *config.PayPalConfig {
	return &config.PayPalConfig{
		BaseURL:      baseURL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		MerchantID:   "MERCHANT_SELF",
		Currency:     "USD",
		FXRate:       1,
		Timeout:      5 * time.Second,
		MaxRetries:   2,
	}
}

func tokenResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer","expires_in":32400}`))
}

func TestGetAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/oauth2/token", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)
		tokenResponse(w)
	}))
	defer srv.Close()

	c := NewPayPal(testConfig(srv.URL))
	token, err := c.GetAccessToken(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, "test-token", token)
}

func TestGetAccessTokenAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	c := NewPayPal(testConfig(srv.URL))
	_, err := c.GetAccessToken(context.Background())
	var authErr *AuthError
	assert.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			tokenResponse(w)
		case "/v2/checkout/orders":
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"ORDER123","status":"CREATED"}`))
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewPayPal(testConfig(srv.URL))
	id, err := c.CreateOrder(context.Background(), "360.00", "USD", "Catedral de Sal — 4 personne(s)")
	assert.Nil(t, err)
	assert.Equal(t, "ORDER123", id)
}

func TestCreateOrderNeverRetried(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			tokenResponse(w)
			return
		}
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"name":"SERVICE_UNAVAILABLE","message":"down"}`))
	}))
	defer srv.Close()

	c := NewPayPal(testConfig(srv.URL))
	_, err := c.CreateOrder(context.Background(), "100.00", "USD", "test")
	var createErr *OrderCreateError
	assert.True(t, errors.As(err, &createErr))
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "order creation must not be auto-retried")
}

func TestGetOrderRetriesOn503(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			tokenResponse(w)
			return
		}
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"id":"ORDER123","status":"APPROVED","purchase_units":[{"payee":{"merchant_id":"MERCHANT_SELF"}}]}`))
	}))
	defer srv.Close()

	c := NewPayPal(testConfig(srv.URL))
	snap, err := c.GetOrder(context.Background(), "ORDER123")
	assert.Nil(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	assert.Equal(t, "APPROVED", snap.Status)
	assert.Equal(t, "MERCHANT_SELF", snap.PayeeMerchantID)
}

func TestGetOrderFailsAfterRetriesExhausted(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			tokenResponse(w)
			return
		}
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewPayPal(testConfig(srv.URL))
	_, err := c.GetOrder(context.Background(), "ORDER123")
	assert.NotNil(t, err)
	// MaxRetries=2 means three attempts total
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestCaptureOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			tokenResponse(w)
		case "/v2/checkout/orders/ORDER123/capture":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"ORDER123","status":"COMPLETED","purchase_units":[{"payments":{"captures":[{"id":"CAP123","status":"COMPLETED"}]}}]}`))
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewPayPal(testConfig(srv.URL))
	capture, err := c.CaptureOrder(context.Background(), "ORDER123")
	assert.Nil(t, err)
	assert.Equal(t, "CAP123", capture.ID)
	assert.Equal(t, "COMPLETED", capture.Status)
	assert.NotEmpty(t, capture.Raw)
}

func TestCaptureOrderMerchantMismatchHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/oauth2/token":
			tokenResponse(w)
		case r.Method == http.MethodPost && r.URL.Path == "/v2/checkout/orders/ORDER456/capture":
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"PERMISSION_DENIED","description":"You do not have permission to access or perform operations on this resource."}]}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v2/checkout/orders/ORDER456":
			w.Write([]byte(`{"id":"ORDER456","status":"APPROVED","purchase_units":[{"payee":{"merchant_id":"MERCHANT_OTHER"}}]}`))
		default:
			t.Errorf("unexpected request to %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewPayPal(testConfig(srv.URL))
	_, err := c.CaptureOrder(context.Background(), "ORDER456")
	var capErr *CaptureError
	assert.True(t, errors.As(err, &capErr))
	assert.Contains(t, capErr.Reason, "PERMISSION_DENIED")
	assert.Contains(t, capErr.Hint, "MERCHANT_OTHER")
	assert.Contains(t, capErr.Hint, "MERCHANT_SELF")
}

func TestVerifyCapture(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			tokenResponse(w)
		case "/v2/payments/captures/CAP123":
			w.Write([]byte(`{"id":"CAP123","status":"COMPLETED"}`))
		case "/v2/payments/captures/CAP999":
			w.Write([]byte(`{"id":"CAP999","status":"PENDING"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"name":"RESOURCE_NOT_FOUND"}`))
		}
	}))
	defer srv.Close()

	c := NewPayPal(testConfig(srv.URL))
	assert.True(t, c.VerifyCapture(context.Background(), "CAP123"))
	assert.False(t, c.VerifyCapture(context.Background(), "CAP999"))
	assert.False(t, c.VerifyCapture(context.Background(), "CAPNOPE"))
	assert.False(t, c.VerifyCapture(context.Background(), ""))
}

func TestStaleTokenRefreshedAndReplayedOnce(t *testing.T) {
	var tokenFetches, verifyCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/oauth2/token":
			token := "fresh-token"
			if atomic.AddInt32(&tokenFetches, 1) == 1 {
				token = "stale-token"
			}
			w.Write([]byte(`{"access_token":"` + token + `","token_type":"Bearer","expires_in":32400}`))
		case "/v2/payments/captures/CAP123":
			atomic.AddInt32(&verifyCalls, 1)
			if r.Header.Get("Authorization") == "Bearer stale-token" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"invalid_token"}`))
				return
			}
			w.Write([]byte(`{"id":"CAP123","status":"COMPLETED"}`))
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewPayPal(testConfig(srv.URL))
	assert.True(t, c.VerifyCapture(context.Background(), "CAP123"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&tokenFetches), "stale fetch plus one refresh")
	assert.Equal(t, int32(2), atomic.LoadInt32(&verifyCalls), "the 401 call is replayed exactly once")
}

func TestVerifyCaptureRetriesOn503(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			tokenResponse(w)
			return
		}
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"id":"CAP123","status":"COMPLETED"}`))
	}))
	defer srv.Close()

	c := NewPayPal(testConfig(srv.URL))
	assert.True(t, c.VerifyCapture(context.Background(), "CAP123"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestVerifyCaptureFalseAfterRetriesExhausted(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			tokenResponse(w)
			return
		}
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	c := NewPayPal(testConfig(srv.URL))
	assert.False(t, c.VerifyCapture(context.Background(), "CAP123"))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	// the final failed attempt must not log a retry that never happens
	assert.Equal(t, 2, strings.Count(logs.String(), "retrying"))
}

func TestVerifyCaptureFalseOnNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenResponse(w)
	}))
	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 0
	srv.Close()

	c := NewPayPal(cfg)
	assert.False(t, c.VerifyCapture(context.Background(), "CAP123"))
}

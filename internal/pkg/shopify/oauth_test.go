package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testConfig() *Config {
	return &Config{
		APIKey:        "app-key",
		APISecret:     "app-secret",
		WebhookSecret: "hook-secret",
		Scopes:        "read_orders,read_products",
		RedirectURI:   "https://app.linkfox.io/shopify/callback",
		APIVersion:    defaultAPIVersion,
		AppURL:        "https://app.linkfox.io",
	}
}

func TestInstallStateRoundTrip(t *testing.T) {
	now := time.Now()
	encoded := EncodeInstallState(42, now)

	st, err := DecodeInstallState(encoded, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if st.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", st.UserID)
	}
	if st.IssuedAt != now.Unix() {
		t.Fatalf("expected issued_at %d, got %d", now.Unix(), st.IssuedAt)
	}
}

func TestDecodeInstallState_Malformed(t *testing.T) {
	now := time.Now()
	for _, in := range []string{"", "%%%", "bm90LWpzb24", EncodeInstallState(0, now)} {
		_, err := DecodeInstallState(in, now)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("DecodeInstallState(%q) expected ValidationError, got %v", in, err)
		}
	}
}

func TestDecodeInstallState_Expired(t *testing.T) {
	now := time.Now()
	encoded := EncodeInstallState(7, now.Add(-installStateMaxAge-time.Minute))
	if _, err := DecodeInstallState(encoded, now); err == nil {
		t.Fatalf("expected stale state to be rejected")
	}
}

func TestBuildInstallURL(t *testing.T) {
	u, err := BuildInstallURL(testConfig(), 9, "https://Demo.myshopify.com/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(u, "https://demo.myshopify.com/admin/oauth/authorize?") {
		t.Fatalf("unexpected authorize url: %s", u)
	}
	for _, part := range []string{"client_id=app-key", "scope=read_orders", "state="} {
		if !strings.Contains(u, part) {
			t.Fatalf("authorize url missing %q: %s", part, u)
		}
	}
}

func TestBuildInstallURL_BadDomain(t *testing.T) {
	if _, err := BuildInstallURL(testConfig(), 9, "evil.example.com"); err == nil {
		t.Fatalf("expected invalid domain to fail")
	}
}

func TestExchangeCode(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("unexpected body: %v", err)
		}
		if body["client_id"] != "app-key" || body["code"] != "code-123" {
			t.Fatalf("unexpected exchange payload: %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "shpat_token", "scope": "read_orders"})
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.tokenURLOverride = srv.URL

	token, err := ExchangeCode(context.Background(), cfg, srv.Client(), "demo.myshopify.com", "code-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "shpat_token" {
		t.Fatalf("unexpected token: %q", token)
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 exchange call, got %d", calls)
	}
}

func TestExchangeCode_NoRetryOnFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_request"}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.tokenURLOverride = srv.URL

	if _, err := ExchangeCode(context.Background(), cfg, srv.Client(), "demo.myshopify.com", "used-code"); err == nil {
		t.Fatalf("expected exchange failure")
	}
	if calls != 1 {
		t.Fatalf("one-shot exchange must not retry, got %d calls", calls)
	}
}

func TestExchangeCode_EmptyCode(t *testing.T) {
	var verr *ValidationError
	_, err := ExchangeCode(context.Background(), testConfig(), nil, "demo.myshopify.com", " ")
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

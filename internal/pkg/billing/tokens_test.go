package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/internal/pkg/shopify"
)

func TestTokenManagerValidate_Accepted(t *testing.T) {
	repo := newFakeRepository()
	m := repo.addMerchant(connectedMerchant(1, "demo.myshopify.com"))
	m.LastValidatedAt = nil
	tm := NewTokenManager(repo, &fakeShopifyAPI{})

	result, err := tm.Validate(context.Background(), m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != TokenValid {
		t.Fatalf("expected TokenValid, got %s", result)
	}
	if m.LastValidatedAt == nil {
		t.Fatalf("validation time must be recorded")
	}
}

func TestTokenManagerValidate_DefinitiveRejection(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"status 401", &shopify.APIError{StatusCode: 401, Detail: "[API] Invalid API key or access token"}},
		{"status 403", &shopify.APIError{StatusCode: 403, Detail: "forbidden"}},
		{"revoked in message", &shopify.APIError{StatusCode: 422, Detail: "token has been revoked"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepository()
			m := repo.addMerchant(connectedMerchant(1, "demo.myshopify.com"))
			tm := NewTokenManager(repo, &fakeShopifyAPI{shopInfoErr: tc.err})

			result, err := tm.Validate(context.Background(), m)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != TokenInvalid {
				t.Fatalf("expected TokenInvalid, got %s", result)
			}
			if m.TokenStatus != models.TokenStatusInvalid {
				t.Fatalf("stored token must be marked invalid, got %s", m.TokenStatus)
			}
		})
	}
}

func TestTokenManagerValidate_TransientFailureFailsOpen(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"server error", &shopify.APIError{StatusCode: 503, Detail: "unavailable"}},
		{"rate limited", &shopify.RateLimitError{Attempts: 3}},
		{"network failure", errors.New("dial tcp: connection refused")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeRepository()
			m := repo.addMerchant(connectedMerchant(1, "demo.myshopify.com"))
			tm := NewTokenManager(repo, &fakeShopifyAPI{shopInfoErr: tc.err})

			result, err := tm.Validate(context.Background(), m)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != TokenIndeterminate {
				t.Fatalf("expected TokenIndeterminate, got %s", result)
			}
			if m.TokenStatus != models.TokenStatusActive {
				t.Fatalf("token must stay active on transient failure, got %s", m.TokenStatus)
			}
		})
	}
}

func TestGetValidToken(t *testing.T) {
	repo := newFakeRepository()
	repo.addMerchant(connectedMerchant(1, "demo.myshopify.com"))
	tm := NewTokenManager(repo, &fakeShopifyAPI{})

	shop, token, err := tm.GetValidToken(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shop != "demo.myshopify.com" || token != "shpat_test" {
		t.Fatalf("unexpected credentials: %s %s", shop, token)
	}
}

func TestGetValidToken_TransientProbeStillReturnsToken(t *testing.T) {
	repo := newFakeRepository()
	repo.addMerchant(connectedMerchant(1, "demo.myshopify.com"))
	tm := NewTokenManager(repo, &fakeShopifyAPI{shopInfoErr: &shopify.APIError{StatusCode: 500, Detail: "boom"}})

	_, token, err := tm.GetValidToken(context.Background(), 1)
	if err != nil {
		t.Fatalf("transient failure must fail open, got %v", err)
	}
	if token == "" {
		t.Fatalf("expected stored token despite probe failure")
	}
}

func TestGetValidToken_RejectedToken(t *testing.T) {
	repo := newFakeRepository()
	repo.addMerchant(connectedMerchant(1, "demo.myshopify.com"))
	tm := NewTokenManager(repo, &fakeShopifyAPI{shopInfoErr: &shopify.APIError{StatusCode: 401, Detail: "nope"}})

	_, _, err := tm.GetValidToken(context.Background(), 1)
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestRevoke_Idempotent(t *testing.T) {
	repo := newFakeRepository()
	m := repo.addMerchant(connectedMerchant(1, "demo.myshopify.com"))
	tm := NewTokenManager(repo, &fakeShopifyAPI{})

	if err := tm.Revoke(context.Background(), m.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.TokenStatus != models.TokenStatusRevoked || m.AccessToken != nil {
		t.Fatalf("unexpected state after revoke: %+v", m)
	}

	if err := tm.Revoke(context.Background(), m.ID); err != nil {
		t.Fatalf("second revoke must be a no-op, got %v", err)
	}
}

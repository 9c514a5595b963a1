package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCreateRecurringCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		var payload struct {
			Charge struct {
				Name      string `json:"name"`
				Price     string `json:"price"`
				ReturnURL string `json:"return_url"`
				TrialDays int    `json:"trial_days"`
				Test      bool   `json:"test"`
			} `json:"recurring_application_charge"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if payload.Charge.Price != "9.99" {
			t.Fatalf("price must be a two-decimal string, got %q", payload.Charge.Price)
		}
		if payload.Charge.TrialDays != 7 || !payload.Charge.Test {
			t.Fatalf("unexpected charge payload: %+v", payload.Charge)
		}
		_, _ = w.Write([]byte(`{"recurring_application_charge":{"id":1029266948,"name":"Pro Plan","price":"9.99","status":"pending","confirmation_url":"https://demo.myshopify.com/admin/charges/confirm","trial_days":7}}`))
	}))
	defer srv.Close()

	charge, err := newTestClient(srv).CreateRecurringCharge(context.Background(), "demo.myshopify.com", "tok", ChargeParams{
		Name:      "Pro Plan",
		Price:     9.99,
		ReturnURL: "https://example.com/billing/confirm",
		TrialDays: 7,
		Test:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if charge.ID != 1029266948 || charge.Status != "pending" {
		t.Fatalf("unexpected charge: %+v", charge)
	}
	if charge.ConfirmationURL == "" {
		t.Fatalf("confirmation url missing")
	}
}

func TestCreateRecurringCharge_BadTokenMentionsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":"[API] Invalid API key or access token"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).CreateRecurringCharge(context.Background(), "demo.myshopify.com", "bad-token", ChargeParams{Name: "Pro Plan", Price: 9.99})
	if err == nil {
		t.Fatalf("expected error for rejected token")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("error must name the status code, got %q", err.Error())
	}
}

func TestCreateRecurringCharge_MalformedResponse(t *testing.T) {
	cases := map[string]string{
		"missing envelope":         `{}`,
		"missing id":               `{"recurring_application_charge":{"confirmation_url":"https://x"}}`,
		"missing confirmation url": `{"recurring_application_charge":{"id":5,"status":"pending"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv).CreateRecurringCharge(context.Background(), "demo.myshopify.com", "tok", ChargeParams{Name: "Pro Plan", Price: 9.99})
			var ire *InvalidResponseError
			if !errors.As(err, &ire) {
				t.Fatalf("expected InvalidResponseError, got %v", err)
			}
		})
	}
}

func TestActivateRecurringCharge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/recurring_application_charges/42/activate.json") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"recurring_application_charge":{"id":42,"name":"Pro Plan","price":"9.99","status":"active"}}`))
	}))
	defer srv.Close()

	charge, err := newTestClient(srv).ActivateRecurringCharge(context.Background(), "demo.myshopify.com", "tok", 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if charge.Status != "active" {
		t.Fatalf("expected active status, got %q", charge.Status)
	}
}

func TestCancelRecurringCharge(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := newTestClient(srv).CancelRecurringCharge(context.Background(), "demo.myshopify.com", "tok", 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != http.MethodDelete || !strings.HasSuffix(path, "/recurring_application_charges/42.json") {
		t.Fatalf("unexpected request: %s %s", method, path)
	}
}

func TestGetShopInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"shop":{"id":7,"name":"Demo Shop","email":"owner@example.com","domain":"demo.example.com","myshopify_domain":"demo.myshopify.com","plan_name":"basic"}}`))
	}))
	defer srv.Close()

	shop, err := newTestClient(srv).GetShopInfo(context.Background(), "demo.myshopify.com", "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shop.MyshopifyDomain != "demo.myshopify.com" || shop.PlanName != "basic" {
		t.Fatalf("unexpected shop info: %+v", shop)
	}
}

func TestGetShopInfo_MissingDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"shop":{"id":7,"name":"Demo Shop"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetShopInfo(context.Background(), "demo.myshopify.com", "tok")
	var ire *InvalidResponseError
	if !errors.As(err, &ire) {
		t.Fatalf("expected InvalidResponseError, got %v", err)
	}
}

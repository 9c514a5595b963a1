package shopify

import (
	"errors"
	"testing"
)

func TestNormalizeShopDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "demo.myshopify.com", want: "demo.myshopify.com"},
		{in: "https://demo.myshopify.com/", want: "demo.myshopify.com"},
		{in: "http://demo.myshopify.com/admin", want: "demo.myshopify.com"},
		{in: "DEMO.MYSHOPIFY.COM", want: "demo.myshopify.com"},
		{in: "  demo-shop.myshopify.com  ", want: "demo-shop.myshopify.com"},
		{in: "demo", want: "demo.myshopify.com"},
		{in: "demo.myshopify.com:443", want: "demo.myshopify.com"},
	}

	for _, tt := range tests {
		got, err := NormalizeShopDomain(tt.in)
		if err != nil {
			t.Fatalf("NormalizeShopDomain(%q) unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("NormalizeShopDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeShopDomain_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "https://", "evil.example.com", "-bad.myshopify.com", "demo.myshopify.com.evil.com"} {
		_, err := NormalizeShopDomain(in)
		if err == nil {
			t.Fatalf("NormalizeShopDomain(%q) expected error", in)
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("NormalizeShopDomain(%q) expected ValidationError, got %T", in, err)
		}
	}
}

func TestIsValidShopDomain(t *testing.T) {
	if !IsValidShopDomain("demo.myshopify.com") {
		t.Fatalf("expected valid domain")
	}
	if IsValidShopDomain("demo.example.com") {
		t.Fatalf("expected non-platform domain to be rejected")
	}
}

package shopify

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/LinkFox/internal/pkg/env"
)

const defaultAPIVersion = "2024-07"

// Config holds the process-wide Shopify app credentials. It is loaded once at
// startup and passed explicitly into the components that need it; secrets are
// never read from the environment at call time.
type Config struct {
	APIKey        string `validate:"required"`
	APISecret     string `validate:"required"`
	WebhookSecret string `validate:"required"`
	Scopes        string `validate:"required"`
	RedirectURI   string `validate:"required,url"`
	APIVersion    string `validate:"required"`
	AppURL        string `validate:"required,url"`

	// tokenURLOverride lets tests point the code exchange at a local server.
	tokenURLOverride string
}

// LoadConfigFromEnv reads the Shopify configuration and fails when a required
// secret is absent, so a misconfigured deployment dies at startup instead of
// at the first webhook.
func LoadConfigFromEnv() (*Config, error) {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	redirectURI := strings.TrimSpace(env.GetEnv("SHOPIFY_REDIRECT_URI", ""))
	if redirectURI == "" && base != "" {
		redirectURI = base + "/shopify/callback"
	}
	appURL := strings.TrimSpace(env.GetEnv("APP_URL", base))

	cfg := &Config{
		APIKey:        strings.TrimSpace(env.GetEnv("SHOPIFY_API_KEY", "")),
		APISecret:     strings.TrimSpace(env.GetEnv("SHOPIFY_API_SECRET", "")),
		WebhookSecret: strings.TrimSpace(env.GetEnv("SHOPIFY_WEBHOOK_SECRET", "")),
		Scopes:        strings.TrimSpace(env.GetEnv("SHOPIFY_SCOPES", "read_orders,read_products")),
		RedirectURI:   redirectURI,
		APIVersion:    strings.TrimSpace(env.GetEnv("SHOPIFY_API_VERSION", defaultAPIVersion)),
		AppURL:        appURL,
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("shopify configuration incomplete: %w", err)
	}
	return cfg, nil
}

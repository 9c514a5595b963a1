package billing

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/ManuelReschke/LinkFox/app/models"
	"github.com/ManuelReschke/LinkFox/internal/pkg/shopify"
)

// TokenValidation is the outcome of probing a stored access token.
type TokenValidation int

const (
	// TokenValid means the platform accepted the token.
	TokenValid TokenValidation = iota
	// TokenInvalid means the platform definitively rejected it.
	TokenInvalid
	// TokenIndeterminate covers transient failures (timeouts, 5xx, rate
	// limits) where the token's real state is unknown.
	TokenIndeterminate
)

func (v TokenValidation) String() string {
	switch v {
	case TokenValid:
		return "valid"
	case TokenInvalid:
		return "invalid"
	default:
		return "indeterminate"
	}
}

// ErrNoToken is returned when a merchant has no usable stored token.
var ErrNoToken = errors.New("merchant has no active access token")

// TokenManager validates and revokes stored merchant tokens. Validation fails
// open: only a definitive rejection by the platform invalidates a token,
// transient errors leave it untouched.
type TokenManager struct {
	repo Repository
	api  ShopifyAPI
}

// NewTokenManager creates a token manager over the given repository and API.
func NewTokenManager(repo Repository, api ShopifyAPI) *TokenManager {
	return &TokenManager{repo: repo, api: api}
}

// Validate probes the merchant's token against the shop endpoint and updates
// the stored state on a definitive answer.
func (t *TokenManager) Validate(ctx context.Context, merchant *models.Merchant) (TokenValidation, error) {
	if merchant == nil || !merchant.HasCredentials() {
		return TokenInvalid, ErrNoToken
	}

	_, err := t.api.GetShopInfo(ctx, *merchant.ShopDomain, *merchant.AccessToken)
	if err == nil {
		if uerr := t.repo.UpdateTokenValidated(merchant.ID, time.Now()); uerr != nil {
			log.Printf("level=warn component=token_manager msg=\"failed to record validation time\" merchant_id=%d err=%v", merchant.ID, uerr)
		}
		return TokenValid, nil
	}

	switch classifyValidation(err) {
	case TokenInvalid:
		if merr := t.repo.MarkTokenInvalid(merchant.ID); merr != nil {
			return TokenInvalid, merr
		}
		log.Printf("level=warn component=token_manager msg=\"token rejected by platform\" merchant_id=%d shop=%s", merchant.ID, *merchant.ShopDomain)
		return TokenInvalid, nil
	default:
		return TokenIndeterminate, nil
	}
}

// GetValidToken returns the merchant's token after a validation probe. A
// transient probe failure still returns the stored token; only a definitive
// rejection yields ErrNoToken.
func (t *TokenManager) GetValidToken(ctx context.Context, userID uint) (string, string, error) {
	merchant, err := t.repo.GetMerchantByUserID(userID)
	if err != nil {
		return "", "", err
	}
	if !merchant.HasCredentials() {
		return "", "", ErrNoToken
	}

	result, err := t.Validate(ctx, merchant)
	if err != nil {
		return "", "", err
	}
	if result == TokenInvalid {
		return "", "", ErrNoToken
	}
	return *merchant.ShopDomain, *merchant.AccessToken, nil
}

// Revoke clears the merchant's stored token. Calling it on an already revoked
// merchant is a no-op.
func (t *TokenManager) Revoke(ctx context.Context, merchantID uint) error {
	_ = ctx
	if merchantID == 0 {
		return errors.New("merchant_id is required")
	}
	return t.repo.RevokeToken(merchantID)
}

// classifyValidation maps an API error to a token verdict. 401/403 and error
// messages naming an invalid or revoked token are definitive; everything else
// (rate limits, 5xx, network failures) is indeterminate.
func classifyValidation(err error) TokenValidation {
	var apiErr *shopify.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 401 || apiErr.StatusCode == 403 {
			return TokenInvalid
		}
		detail := strings.ToLower(apiErr.Detail)
		if strings.Contains(detail, "invalid") || strings.Contains(detail, "revoked") {
			return TokenInvalid
		}
		return TokenIndeterminate
	}

	var rlErr *shopify.RateLimitError
	if errors.As(err, &rlErr) {
		return TokenIndeterminate
	}
	return TokenIndeterminate
}

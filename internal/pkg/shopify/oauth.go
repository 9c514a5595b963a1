package shopify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// installStateMaxAge bounds how long an issued install state stays valid. The
// state blob is opaque but unsigned, so short validity is part of its
// security posture.
const installStateMaxAge = 15 * time.Minute

// InstallState is the opaque value round-tripped through the platform's
// authorize redirect. It identifies which local user initiated the install.
type InstallState struct {
	UserID   uint  `json:"user_id"`
	IssuedAt int64 `json:"issued_at"`
}

// EncodeInstallState serializes the state as base64url(JSON).
func EncodeInstallState(userID uint, now time.Time) string {
	raw, _ := json.Marshal(InstallState{UserID: userID, IssuedAt: now.Unix()})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeInstallState reverses EncodeInstallState and rejects malformed or
// stale values with a ValidationError.
func DecodeInstallState(state string, now time.Time) (*InstallState, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(state))
	if err != nil {
		return nil, &ValidationError{Reason: "malformed oauth state"}
	}
	var st InstallState
	if err := json.Unmarshal(raw, &st); err != nil || st.UserID == 0 || st.IssuedAt == 0 {
		return nil, &ValidationError{Reason: "malformed oauth state"}
	}
	issued := time.Unix(st.IssuedAt, 0)
	if issued.After(now.Add(time.Minute)) || now.Sub(issued) > installStateMaxAge {
		return nil, &ValidationError{Reason: "oauth state expired"}
	}
	return &st, nil
}

// BuildInstallURL composes the platform authorize URL for a shop. Pure
// function, no network call.
func BuildInstallURL(cfg *Config, userID uint, rawShopDomain string) (string, error) {
	if cfg == nil || cfg.APIKey == "" {
		return "", errors.New("shopify oauth is not configured")
	}
	domain, err := NormalizeShopDomain(rawShopDomain)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("client_id", cfg.APIKey)
	q.Set("scope", cfg.Scopes)
	q.Set("redirect_uri", cfg.RedirectURI)
	q.Set("state", EncodeInstallState(userID, time.Now()))

	return fmt.Sprintf("https://%s/admin/oauth/authorize?%s", domain, q.Encode()), nil
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// ExchangeCode swaps an authorization code for a permanent access token.
// OAuth codes are single use, so this is deliberately a one-shot POST with no
// retry: a retried exchange would fail on the consumed code anyway.
func ExchangeCode(ctx context.Context, cfg *Config, httpClient *http.Client, shopDomain, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", &ValidationError{Reason: "oauth code is required"}
	}
	domain, err := NormalizeShopDomain(shopDomain)
	if err != nil {
		return "", err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	body, _ := json.Marshal(map[string]string{
		"client_id":     cfg.APIKey,
		"client_secret": cfg.APISecret,
		"code":          strings.TrimSpace(code),
	})

	tokenURL := "https://" + domain + "/admin/oauth/access_token"
	if cfg.tokenURLOverride != "" {
		tokenURL = cfg.tokenURLOverride
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("shopify token exchange failed: status=%d detail=%s", resp.StatusCode, parseErrorDetail(respBody))
	}

	var out accessTokenResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", errors.New("shopify token exchange returned empty access_token")
	}
	return out.AccessToken, nil
}

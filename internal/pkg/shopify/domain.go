package shopify

import (
	"regexp"
	"strings"
)

// shopDomainPattern matches the platform's shop domain format. Shopify shop
// handles start with an alphanumeric character and may contain hyphens.
var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

// NormalizeShopDomain cleans user supplied shop input into a canonical
// "<shop>.myshopify.com" domain. A bare shop handle gets the platform suffix
// appended. Returns a ValidationError when the result does not match the
// platform's domain pattern.
func NormalizeShopDomain(raw string) (string, error) {
	domain := strings.ToLower(strings.TrimSpace(raw))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	if idx := strings.IndexByte(domain, '/'); idx >= 0 {
		domain = domain[:idx]
	}
	if idx := strings.IndexByte(domain, ':'); idx >= 0 {
		domain = domain[:idx]
	}
	if domain == "" {
		return "", &ValidationError{Reason: "shop domain is empty"}
	}
	if !strings.Contains(domain, ".") {
		domain += ".myshopify.com"
	}
	if !shopDomainPattern.MatchString(domain) {
		return "", &ValidationError{Reason: "not a valid myshopify.com domain: " + domain}
	}
	return domain, nil
}

// IsValidShopDomain reports whether an already-normalized domain matches the
// platform pattern. Used by the webhook path where the domain arrives in a
// header and is not user input.
func IsValidShopDomain(domain string) bool {
	return shopDomainPattern.MatchString(strings.ToLower(strings.TrimSpace(domain)))
}

// Package identity derives a best-effort stable identity for an anonymous
// visitor from its network origin address and a device fingerprint. Both
// signals are spoofable; the system accepts that a motivated client rotating
// both can bypass the cooldown. That tradeoff is deliberate.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lumadrop/coupon-distributor/internal/config"
	"github.com/lumadrop/coupon-distributor/internal/model"
)

// ErrAddressUnresolved is returned when no valid client address can be
// determined. Callers must refuse the claim rather than allow unlimited
// claims from unverifiable clients.
var ErrAddressUnresolved = errors.New("origin address could not be resolved")

// Resolver resolves visitor identities from HTTP requests.
type Resolver struct {
	cookieName   string
	cookieMaxAge time.Duration
	trustProxy   bool
}

// NewResolver creates a Resolver from identity configuration.
func NewResolver(cfg config.IdentityConfig) *Resolver {
	return &Resolver{
		cookieName:   cfg.CookieName,
		cookieMaxAge: time.Duration(cfg.CookieMaxAgeDays) * 24 * time.Hour,
		trustProxy:   cfg.TrustProxyHeaders,
	}
}

// Resolve returns the identity for the request. The fingerprint fast path is
// a long-lived cookie; otherwise the fingerprint is derived from client
// characteristics and persisted as a cookie for future requests. When no
// characteristic is available the fingerprint is the UnknownFingerprint
// sentinel and no cookie is written.
//
// Resolution fails only when the origin address cannot be determined.
func (r *Resolver) Resolve(c *fiber.Ctx) (model.Identity, error) {
	addr := r.originAddress(c)
	if addr == "" {
		return model.Identity{}, ErrAddressUnresolved
	}

	fp := c.Cookies(r.cookieName)
	if fp == "" {
		fp = fingerprint(c)
		if fp != model.UnknownFingerprint {
			c.Cookie(&fiber.Cookie{
				Name:     r.cookieName,
				Value:    fp,
				Expires:  time.Now().Add(r.cookieMaxAge),
				Path:     "/",
				SameSite: fiber.CookieSameSiteStrictMode,
			})
		}
	}

	return model.Identity{OriginAddress: addr, DeviceFingerprint: fp}, nil
}

// originAddress picks the client address, preferring proxy headers when they
// are trusted, and validates it parses as an IP. Returns "" on failure.
func (r *Resolver) originAddress(c *fiber.Ctx) string {
	var candidates []string
	if r.trustProxy {
		if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
			// First hop is the original client.
			candidates = append(candidates, strings.TrimSpace(strings.Split(xff, ",")[0]))
		}
		if real := c.Get("X-Real-IP"); real != "" {
			candidates = append(candidates, strings.TrimSpace(real))
		}
	}
	candidates = append(candidates, c.IP())

	for _, cand := range candidates {
		if net.ParseIP(cand) != nil {
			return cand
		}
	}
	return ""
}

// fingerprint hashes stable client characteristics into a hex digest.
func fingerprint(c *fiber.Ctx) string {
	parts := []string{
		c.Get(fiber.HeaderUserAgent),
		c.Get(fiber.HeaderAccept),
		c.Get(fiber.HeaderAcceptLanguage),
		c.Get(fiber.HeaderAcceptEncoding),
	}
	joined := strings.Join(parts, "|")
	if strings.Trim(joined, "|") == "" {
		return model.UnknownFingerprint
	}
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// MaskAddress redacts the host portion of an IPv4 address for display
// (192.168.1.1 -> 192.168.x.x). Non-IPv4 values pass through unchanged;
// empty values become "Unknown".
func MaskAddress(addr string) string {
	if addr == "" {
		return model.UnknownFingerprint
	}
	parts := strings.Split(addr, ".")
	if len(parts) != 4 {
		return addr
	}
	return parts[0] + "." + parts[1] + ".x.x"
}

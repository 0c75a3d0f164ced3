package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/gisportal/internal/core/domain"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"

	sessionKey     = "session"
	accessTokenKey = "access_token"
	refreshedKey   = "refreshed_tokens"
)

// RequireAuth resolves the session from the auth cookies, refreshing them
// when needed, and rejects the request otherwise.
func RequireAuth(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authenticate(c, deps); err != nil {
			if errors.Is(err, domain.ErrAuthUnavailable) {
				LoggerFromCtx(c.UserContext()).Warn("auth server unavailable", "error", err)
				return errBadGateway(c, "auth server unavailable")
			}
			return errUnauthorized(c, "authentication required")
		}
		return c.Next()
	}
}

// OptionalAuth resolves the session when possible and continues anonymously
// otherwise.
func OptionalAuth(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := authenticate(c, deps); err != nil && errors.Is(err, domain.ErrAuthUnavailable) {
			LoggerFromCtx(c.UserContext()).Warn("auth server unavailable, continuing anonymously", "error", err)
		}
		return c.Next()
	}
}

// RequireRole rejects sessions ranked below min. It must run after RequireAuth.
func RequireRole(min domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := SessionFrom(c)
		if sess == nil {
			return errUnauthorized(c, "authentication required")
		}
		if !sess.Role.AtLeast(min) {
			return errForbidden(c, "requires role "+string(min))
		}
		return c.Next()
	}
}

// SessionFrom returns the session stored by RequireAuth or OptionalAuth.
func SessionFrom(c *fiber.Ctx) *domain.Session {
	sess, _ := c.Locals(sessionKey).(*domain.Session)
	return sess
}

func authenticate(c *fiber.Ctx, deps *Dependencies) error {
	access := c.Cookies(accessCookie)
	sess, pair, err := deps.Auth.Authenticate(c.UserContext(), access, c.Cookies(refreshCookie))
	if err != nil {
		return err
	}

	if pair != nil {
		access = pair.AccessToken
		setAuthCookies(c, deps.Cookies, pair, sess.ExpiresAt)
		c.Locals(refreshedKey, pair)
	}
	c.Locals(sessionKey, sess)
	c.Locals(accessTokenKey, access)
	c.SetUserContext(context.WithValue(c.UserContext(), ctxKey(sessionKey), sess))
	return nil
}

func sessionFromCtx(ctx context.Context) *domain.Session {
	sess, _ := ctx.Value(ctxKey(sessionKey)).(*domain.Session)
	return sess
}

func setAuthCookies(c *fiber.Ctx, cfg CookieConfig, pair *domain.TokenPair, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     accessCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  expires,
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:        refreshCookie,
		Value:       pair.RefreshToken,
		Path:        "/",
		Domain:      cfg.Domain,
		Secure:      cfg.Secure,
		HTTPOnly:    true,
		SameSite:    fiber.CookieSameSiteLaxMode,
		SessionOnly: true,
	})
}

func clearAuthCookies(c *fiber.Ctx, cfg CookieConfig) {
	for _, name := range []string{accessCookie, refreshCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   cfg.Domain,
			Expires:  time.Unix(0, 0),
			Secure:   cfg.Secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}

// reapplyAuthCookies restores refreshed cookies after a handler replaced
// the response headers wholesale.
func reapplyAuthCookies(c *fiber.Ctx, cfg CookieConfig) {
	pair, ok := c.Locals(refreshedKey).(*domain.TokenPair)
	if !ok {
		return
	}
	if sess := SessionFrom(c); sess != nil {
		setAuthCookies(c, cfg, pair, sess.ExpiresAt)
	}
}

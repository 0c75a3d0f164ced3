package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/gisportal/internal/core/domain"
	"github.com/samirrijal/gisportal/internal/core/ports"
	"github.com/samirrijal/gisportal/internal/pkg/metrics"
	"github.com/samirrijal/gisportal/internal/pkg/telemetry"
)

// AuthOptions tunes token verification and refresh.
type AuthOptions struct {
	Secret          []byte
	RefreshSkew     time.Duration // refresh tokens expiring sooner than this
	RefreshCacheTTL int           // seconds a refreshed pair is reused
	Leeway          time.Duration
}

// AuthService verifies access-token cookies and refreshes them against the
// external auth server.
type AuthService struct {
	server ports.AuthServer
	cache  ports.CacheService
	opts   AuthOptions
	group  singleflight.Group
}

type accessClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewAuthService creates a new AuthService. cache may be nil.
func NewAuthService(server ports.AuthServer, cache ports.CacheService, opts AuthOptions) *AuthService {
	if opts.Leeway == 0 {
		opts.Leeway = 5 * time.Second
	}
	return &AuthService{server: server, cache: cache, opts: opts}
}

// ParseAccessToken verifies an HS256 access token and returns its session.
func (s *AuthService) ParseAccessToken(token string) (*domain.Session, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.opts.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.opts.Leeway),
	)
	if err != nil {
		return nil, err
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}
	return &domain.Session{
		Subject:   claims.Subject,
		Username:  username,
		Role:      domain.ParseRole(claims.Role),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Authenticate resolves a session from the cookie tokens. When the access
// token is missing, invalid, or about to expire it is refreshed and the new
// pair is returned alongside the session; otherwise the pair is nil. A token
// inside the refresh window stays usable when no refresh is possible.
func (s *AuthService) Authenticate(ctx context.Context, accessToken, refreshToken string) (*domain.Session, *domain.TokenPair, error) {
	var current *domain.Session
	if accessToken != "" {
		sess, err := s.ParseAccessToken(accessToken)
		switch {
		case err == nil && time.Until(sess.ExpiresAt) > s.opts.RefreshSkew:
			return sess, nil, nil
		case err == nil:
			current = sess
		case !errors.Is(err, jwt.ErrTokenExpired):
			slog.DebugContext(ctx, "access token rejected", "error", err)
		}
	}

	if refreshToken == "" {
		if current != nil {
			return current, nil, nil
		}
		return nil, nil, domain.ErrUnauthenticated
	}

	pair, err := s.refresh(ctx, refreshToken)
	if err == nil {
		sess, perr := s.ParseAccessToken(pair.AccessToken)
		if perr == nil {
			return sess, pair, nil
		}
		metrics.AuthRefreshes.WithLabelValues("invalid_token").Inc()
		err = fmt.Errorf("%w: refreshed access token: %v", domain.ErrAuthUnavailable, perr)
	}

	if current != nil {
		slog.WarnContext(ctx, "token refresh failed, keeping current access token",
			"user", current.Username, "error", err)
		return current, nil, nil
	}
	return nil, nil, err
}

// refresh exchanges refreshToken, coalescing concurrent callers in-process
// and across instances through the cache.
func (s *AuthService) refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	sum := sha256.Sum256([]byte(refreshToken))
	key := "auth:refresh:" + hex.EncodeToString(sum[:])

	// Detached from the caller: other waiters share the result. The auth
	// server client applies its own timeout.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		ctx, span := telemetry.Tracer().Start(context.WithoutCancel(ctx), telemetry.SpanAuthRefresh)
		defer span.End()

		if s.cache != nil {
			if data, err := s.cache.Get(ctx, key); err == nil {
				var pair domain.TokenPair
				if err := json.Unmarshal(data, &pair); err == nil && pair.AccessToken != "" {
					metrics.CacheHits.WithLabelValues("auth_refresh").Inc()
					return &pair, nil
				}
			}
			metrics.CacheMisses.WithLabelValues("auth_refresh").Inc()
		}

		pair, err := s.server.Refresh(ctx, refreshToken)
		if err != nil {
			span.RecordError(err)
			if errors.Is(err, domain.ErrUnauthenticated) {
				metrics.AuthRefreshes.WithLabelValues("rejected").Inc()
			} else {
				metrics.AuthRefreshes.WithLabelValues("error").Inc()
			}
			return nil, err
		}
		metrics.AuthRefreshes.WithLabelValues("ok").Inc()

		if s.cache != nil && s.opts.RefreshCacheTTL > 0 {
			if data, err := json.Marshal(pair); err == nil {
				_ = s.cache.Set(ctx, key, data, s.opts.RefreshCacheTTL)
			}
		}
		return pair, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.TokenPair), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

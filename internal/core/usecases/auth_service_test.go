package usecases_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/samirrijal/gisportal/internal/core/domain"
	"github.com/samirrijal/gisportal/internal/core/usecases"
)

var testSecret = []byte(strings.Repeat("k", 32))

func signToken(t *testing.T, secret []byte, username, role string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":      "u-" + username,
		"username": username,
		"role":     role,
		"exp":      time.Now().Add(ttl).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newAuth(server *mockAuthServer, cache *memCache) *usecases.AuthService {
	opts := usecases.AuthOptions{
		Secret:          testSecret,
		RefreshSkew:     time.Minute,
		RefreshCacheTTL: 30,
	}
	if cache == nil {
		return usecases.NewAuthService(server, nil, opts)
	}
	return usecases.NewAuthService(server, cache, opts)
}

func TestAuthService_ValidAccessToken(t *testing.T) {
	server := &mockAuthServer{}
	svc := newAuth(server, nil)

	access := signToken(t, testSecret, "amal", "org_publisher", time.Hour)
	sess, pair, err := svc.Authenticate(context.Background(), access, "refresh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair != nil {
		t.Error("expected no refresh for a fresh token")
	}
	if sess.Username != "amal" || sess.Role != domain.RoleOrgPublisher {
		t.Errorf("unexpected session %+v", sess)
	}
	if server.Calls() != 0 {
		t.Errorf("auth server called %d times", server.Calls())
	}
}

func TestAuthService_RefreshesExpiringToken(t *testing.T) {
	server := &mockAuthServer{
		refreshFn: func(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
			if refreshToken != "refresh-1" {
				t.Errorf("unexpected refresh token %q", refreshToken)
			}
			return &domain.TokenPair{
				AccessToken:  signToken(t, testSecret, "amal", "org_admin", time.Hour),
				RefreshToken: "refresh-2",
			}, nil
		},
	}
	svc := newAuth(server, nil)

	// within the one-minute skew
	access := signToken(t, testSecret, "amal", "org_user", 30*time.Second)
	sess, pair, err := svc.Authenticate(context.Background(), access, "refresh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair == nil || pair.RefreshToken != "refresh-2" {
		t.Fatalf("expected new token pair, got %+v", pair)
	}
	if sess.Role != domain.RoleOrgAdmin {
		t.Errorf("expected role from refreshed token, got %s", sess.Role)
	}
}

func TestAuthService_ForgedTokenFallsBackToRefresh(t *testing.T) {
	server := &mockAuthServer{}
	svc := newAuth(server, nil)

	forged := signToken(t, []byte(strings.Repeat("x", 32)), "mallory", "org_admin", time.Hour)
	_, _, err := svc.Authenticate(context.Background(), forged, "stolen")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if server.Calls() != 1 {
		t.Errorf("expected one refresh attempt, got %d", server.Calls())
	}
}

func TestAuthService_NoTokens(t *testing.T) {
	svc := newAuth(&mockAuthServer{}, nil)
	_, _, err := svc.Authenticate(context.Background(), "", "")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthService_RefreshReturnsGarbage(t *testing.T) {
	server := &mockAuthServer{
		refreshFn: func(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
			return &domain.TokenPair{AccessToken: "not-a-jwt", RefreshToken: "r"}, nil
		},
	}
	svc := newAuth(server, nil)

	_, _, err := svc.Authenticate(context.Background(), "", "refresh-1")
	if !errors.Is(err, domain.ErrAuthUnavailable) {
		t.Fatalf("expected ErrAuthUnavailable, got %v", err)
	}
}

func TestAuthService_RefreshCachedAcrossCalls(t *testing.T) {
	server := &mockAuthServer{
		refreshFn: func(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
			return &domain.TokenPair{
				AccessToken:  signToken(t, testSecret, "amal", "viewer", time.Hour),
				RefreshToken: "refresh-2",
			}, nil
		},
	}
	cache := newMemCache()
	svc := newAuth(server, cache)

	for i := 0; i < 3; i++ {
		if _, _, err := svc.Authenticate(context.Background(), "", "refresh-1"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if server.Calls() != 1 {
		t.Errorf("expected a single upstream refresh, got %d", server.Calls())
	}
}

func TestAuthService_ConcurrentRefreshCoalesced(t *testing.T) {
	release := make(chan struct{})
	server := &mockAuthServer{
		refreshFn: func(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
			<-release
			return &domain.TokenPair{
				AccessToken:  signToken(t, testSecret, "amal", "viewer", time.Hour),
				RefreshToken: "refresh-2",
			}, nil
		},
	}
	svc := newAuth(server, newMemCache())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := svc.Authenticate(context.Background(), "", "refresh-1"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if server.Calls() > 2 {
		t.Errorf("expected refreshes to be coalesced, got %d upstream calls", server.Calls())
	}
}

func TestAuthService_ParseAccessToken_RejectsNone(t *testing.T) {
	svc := newAuth(&mockAuthServer{}, nil)
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "x", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	if _, err := svc.ParseAccessToken(tok); err == nil {
		t.Fatal("expected unsigned token to be rejected")
	}
}

func TestAuthService_ExpiringTokenWithoutRefreshCookie(t *testing.T) {
	server := &mockAuthServer{}
	svc := newAuth(server, nil)

	// inside the one-minute skew, but still valid
	access := signToken(t, testSecret, "amal", "viewer", 30*time.Second)
	sess, pair, err := svc.Authenticate(context.Background(), access, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair != nil {
		t.Errorf("expected no new pair, got %+v", pair)
	}
	if sess.Username != "amal" || sess.Role != domain.RoleViewer {
		t.Errorf("unexpected session %+v", sess)
	}
	if server.Calls() != 0 {
		t.Errorf("auth server called %d times", server.Calls())
	}
}

func TestAuthService_ExpiringTokenSurvivesRefreshFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"server down", domain.ErrAuthUnavailable},
		{"refresh revoked", domain.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &mockAuthServer{
				refreshFn: func(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
					return nil, tt.err
				},
			}
			svc := newAuth(server, nil)

			access := signToken(t, testSecret, "amal", "org_user", 30*time.Second)
			sess, pair, err := svc.Authenticate(context.Background(), access, "refresh-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pair != nil || sess.Username != "amal" {
				t.Errorf("unexpected result %+v / %+v", sess, pair)
			}
			if server.Calls() != 1 {
				t.Errorf("expected one refresh attempt, got %d", server.Calls())
			}
		})
	}
}

func TestAuthService_ExpiredTokenRefreshFailure(t *testing.T) {
	server := &mockAuthServer{
		refreshFn: func(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
			return nil, domain.ErrAuthUnavailable
		},
	}
	svc := newAuth(server, nil)

	access := signToken(t, testSecret, "amal", "viewer", -time.Hour)
	if _, _, err := svc.Authenticate(context.Background(), access, "refresh-1"); !errors.Is(err, domain.ErrAuthUnavailable) {
		t.Fatalf("expected ErrAuthUnavailable, got %v", err)
	}
}

func TestAuthService_RefreshOutlivesCancelledCaller(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	upstreamErr := make(chan error, 1)
	server := &mockAuthServer{
		refreshFn: func(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
			close(started)
			<-release
			upstreamErr <- ctx.Err()
			return &domain.TokenPair{
				AccessToken:  signToken(t, testSecret, "amal", "viewer", time.Hour),
				RefreshToken: "refresh-2",
			}, nil
		},
	}
	svc := newAuth(server, newMemCache())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := svc.Authenticate(ctx, "", "refresh-1")
		done <- err
	}()

	<-started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the cancelled caller to return context.Canceled, got %v", err)
	}

	close(release)
	if err := <-upstreamErr; err != nil {
		t.Fatalf("refresh context cancelled with caller: %v", err)
	}
}

package authserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/gisportal/internal/core/domain"
)

// Client implements ports.AuthServer against the portal's auth service.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
}

// New creates a client for the auth server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "gisportal",
			MaxIdleConnDuration: 30 * time.Second,
		},
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token for a new token pair.
// A 401 or 403 from the server wraps domain.ErrUnauthenticated; every other
// failure wraps domain.ErrAuthUnavailable.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/auth/refresh")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout || timeout <= 0 {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthUnavailable, context.DeadlineExceeded)
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthUnavailable, err)
	}

	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusUnauthorized || status == fasthttp.StatusForbidden:
		return nil, fmt.Errorf("%w: refresh rejected (%d)", domain.ErrUnauthenticated, status)
	case status != fasthttp.StatusOK:
		return nil, fmt.Errorf("%w: refresh returned %d", domain.ErrAuthUnavailable, status)
	}

	var out refreshResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: decode refresh response: %v", domain.ErrAuthUnavailable, err)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%w: refresh response without access_token", domain.ErrAuthUnavailable)
	}
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return &domain.TokenPair{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken}, nil
}

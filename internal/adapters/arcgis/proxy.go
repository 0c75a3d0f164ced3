package arcgis

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"github.com/valyala/fasthttp"
)

var (
	// ErrPathNotAllowed means the path is outside every allowed prefix.
	ErrPathNotAllowed = errors.New("arcgis path not allowed")
	// ErrBadPath means the path could not be decoded or escapes the portal root.
	ErrBadPath = errors.New("invalid arcgis path")
)

// Proxy forwards requests to an ArcGIS Portal or Enterprise server,
// attaching the caller's token.
type Proxy struct {
	portal   *url.URL
	prefixes []string
	timeout  time.Duration
	client   *fasthttp.Client
}

// NewProxy creates a proxy for portalURL. Only paths beneath one of prefixes
// are forwarded.
func NewProxy(portalURL string, prefixes []string, timeout time.Duration) (*Proxy, error) {
	u, err := url.Parse(strings.TrimRight(portalURL, "/"))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid portal url %q", portalURL)
	}

	clean := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = strings.Trim(p, "/"); p != "" {
			clean = append(clean, p)
		}
	}

	return &Proxy{
		portal:   u,
		prefixes: clean,
		timeout:  timeout,
		client: &fasthttp.Client{
			Name:                     "gisportal-arcgis",
			NoDefaultUserAgentHeader: true,
			MaxIdleConnDuration:      time.Minute,
		},
	}, nil
}

// Target resolves the upstream URL for a portal-relative path and raw query.
// Any token in the incoming query is replaced by token; an empty token
// leaves the query untouched.
func (p *Proxy) Target(path, rawQuery, token string) (string, error) {
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadPath, err)
	}
	// IIS-hosted portals treat a backslash as a separator.
	if i := strings.IndexFunc(decoded, func(r rune) bool {
		return r == '\\' || r < 0x20 || r == 0x7f
	}); i >= 0 {
		return "", fmt.Errorf("%w: forbidden character %q", ErrBadPath, decoded[i])
	}
	decoded = strings.Trim(decoded, "/")

	for _, seg := range strings.Split(decoded, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: parent segment", ErrBadPath)
		}
	}
	if !p.allowed(decoded) {
		return "", fmt.Errorf("%w: %s", ErrPathNotAllowed, decoded)
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("%w: query: %v", ErrBadPath, err)
	}
	if token != "" {
		query.Set("token", token)
	}

	target := *p.portal
	target.Path = p.portal.Path + "/" + decoded
	target.RawPath = ""
	target.RawQuery = query.Encode()
	return target.String(), nil
}

func (p *Proxy) allowed(path string) bool {
	for _, prefix := range p.prefixes {
		if len(path) < len(prefix) || !strings.EqualFold(path[:len(prefix)], prefix) {
			continue
		}
		if len(path) == len(prefix) || path[len(prefix)] == '/' {
			return true
		}
	}
	return false
}

// Forward proxies the current request to target. Browser cookies are never
// sent upstream and upstream cookies are never returned.
func (p *Proxy) Forward(c *fiber.Ctx, target string) error {
	c.Request().Header.Del(fiber.HeaderCookie)
	c.Request().Header.Del(fiber.HeaderAuthorization)

	if err := proxy.DoTimeout(c, target, p.timeout, p.client); err != nil {
		return err
	}

	c.Response().Header.Del(fiber.HeaderSetCookie)
	c.Response().Header.Del(fiber.HeaderServer)
	return nil
}

package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/gisportal/internal/adapters/arcgis"
	"github.com/samirrijal/gisportal/internal/adapters/postgres"
	"github.com/samirrijal/gisportal/internal/adapters/valkey"
	"github.com/samirrijal/gisportal/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Projections *usecases.ProjectionService
	Auth        *usecases.AuthService
	Menu        *usecases.MenuService
	Usage       *usecases.UsageService
	ArcGIS      *arcgis.Proxy
	Cookies     CookieConfig
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
}

// CookieConfig controls the attributes of the auth cookies.
type CookieConfig struct {
	Secure bool
	Domain string
}

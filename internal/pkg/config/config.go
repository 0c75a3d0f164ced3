package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Auth      AuthConfig      `mapstructure:"auth"`
	ArcGIS    ArcGISConfig    `mapstructure:"arcgis"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Usage     UsageConfig     `mapstructure:"usage"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// AuthConfig configures JWT cookie verification and token refresh.
type AuthConfig struct {
	ServerURL       string `mapstructure:"server_url"`
	JWTSecret       string `mapstructure:"jwt_secret"`
	Timeout         int    `mapstructure:"timeout"`           // seconds
	RefreshSkew     int    `mapstructure:"refresh_skew"`      // seconds before expiry to refresh
	RefreshCacheTTL int    `mapstructure:"refresh_cache_ttl"` // seconds
	CookieSecure    bool   `mapstructure:"cookie_secure"`
	CookieDomain    string `mapstructure:"cookie_domain"`
}

// ArcGISConfig configures the Portal/Enterprise proxy.
type ArcGISConfig struct {
	PortalURL       string   `mapstructure:"portal_url"`
	AllowedPrefixes []string `mapstructure:"allowed_prefixes"`
	Timeout         int      `mapstructure:"timeout"` // seconds
}

type TemporalConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type UsageConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.allow_origins", "http://localhost:3000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gisportal")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "gisportal")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("auth.server_url", "http://localhost:4000")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.timeout", 5)
	v.SetDefault("auth.refresh_skew", 60)
	v.SetDefault("auth.refresh_cache_ttl", 30)
	v.SetDefault("auth.cookie_secure", true)
	v.SetDefault("auth.cookie_domain", "")
	v.SetDefault("arcgis.portal_url", "https://localhost/portal")
	v.SetDefault("arcgis.allowed_prefixes", []string{"sharing/rest", "rest/services"})
	v.SetDefault("arcgis.timeout", 30)
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "usage-rollup")
	v.SetDefault("usage.retention_days", 365)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: GISPORTAL_AUTH_JWT_SECRET → auth.jwt_secret
	v.SetEnvPrefix("GISPORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the sections every binary depends on.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Usage.RetentionDays < 0 {
		errs = append(errs, "usage.retention_days must not be negative")
	}
	if c.Temporal.Enabled && c.Temporal.HostPort == "" {
		errs = append(errs, "temporal.host_port is required when temporal is enabled")
	}

	return joinErrors(errs)
}

// ValidateAPI additionally checks what the HTTP API needs to authenticate
// users and reach ArcGIS.
func (c *Config) ValidateAPI() error {
	var errs []string

	if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, "auth.jwt_secret must be at least 32 bytes")
	}
	if !isHTTPURL(c.Auth.ServerURL) {
		errs = append(errs, fmt.Sprintf("auth.server_url must be an http(s) URL, got %q", c.Auth.ServerURL))
	}
	if c.Auth.Timeout <= 0 {
		errs = append(errs, "auth.timeout must be positive")
	}
	if c.Auth.RefreshSkew < 0 {
		errs = append(errs, "auth.refresh_skew must not be negative")
	}
	if !isHTTPURL(c.ArcGIS.PortalURL) {
		errs = append(errs, fmt.Sprintf("arcgis.portal_url must be an http(s) URL, got %q", c.ArcGIS.PortalURL))
	}
	if len(c.ArcGIS.AllowedPrefixes) == 0 {
		errs = append(errs, "arcgis.allowed_prefixes must list at least one path prefix")
	}
	if c.ArcGIS.Timeout <= 0 {
		errs = append(errs, "arcgis.timeout must be positive")
	}

	return joinErrors(errs)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func joinErrors(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

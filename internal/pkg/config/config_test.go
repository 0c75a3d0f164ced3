package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 8080, ReadTimeout: 10, WriteTimeout: 30},
		Database: DatabaseConfig{Host: "db", Port: 5432, User: "gis", DBName: "gis", SSLMode: "disable"},
		NATS:     NATSConfig{URL: "nats://nats:4222"},
		Valkey:   ValkeyConfig{Addr: "valkey:6379"},
		Auth: AuthConfig{
			ServerURL: "https://auth.example.com",
			JWTSecret: strings.Repeat("s", 32),
			Timeout:   5,
		},
		ArcGIS: ArcGISConfig{
			PortalURL:       "https://gis.example.com/portal",
			AllowedPrefixes: []string{"sharing/rest"},
			Timeout:         30,
		},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.ValidateAPI(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Database.Host = ""
	cfg.NATS.URL = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"server.port", "database.host", "nats.url"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidateAPI(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, "auth.jwt_secret"},
		{"bad auth url", func(c *Config) { c.Auth.ServerURL = "auth.local" }, "auth.server_url"},
		{"ftp portal", func(c *Config) { c.ArcGIS.PortalURL = "ftp://gis.example.com" }, "arcgis.portal_url"},
		{"no prefixes", func(c *Config) { c.ArcGIS.AllowedPrefixes = nil }, "arcgis.allowed_prefixes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.ValidateAPI()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "gis", Password: "p@ss/word", DBName: "portal", SSLMode: "require"}
	want := "postgres://gis:p%40ss%2Fword@db:5432/portal?sslmode=require"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

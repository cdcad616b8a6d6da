package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadMainConfig(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "config", "form_guard.yml"), `
port: "9090"
upstream: "http://wordpress:80"
site_url: "https://staging.bankofmakati.com.ph"
geo_api_timeout: 1500ms
geo_api_rate: "45/1m"
update:
  method: server
  server: "https://updates.example.com"
`)

	cfg, err := LoadMainConfig(base)
	if err != nil {
		t.Fatalf("LoadMainConfig: %v", err)
	}
	if cfg.Port != "9090" || cfg.Upstream != "http://wordpress:80" {
		t.Errorf("unexpected values: port=%s upstream=%s", cfg.Port, cfg.Upstream)
	}
	if cfg.GeoAPITimeout != 1500*time.Millisecond {
		t.Errorf("GeoAPITimeout = %v", cfg.GeoAPITimeout)
	}
	// keys missing from the file keep their defaults
	if cfg.EdgeCountryHeader != "CF-IPCountry" || cfg.CookiePath != "/" {
		t.Errorf("defaults were not kept: %+v", cfg)
	}
	if len(cfg.ConnectingIPHeaders) != 3 {
		t.Errorf("ConnectingIPHeaders = %v", cfg.ConnectingIPHeaders)
	}
}

func TestLoadMainConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad port", "port: \"http\"\n"},
		{"bad upstream", "upstream: \"not a url\"\n"},
		{"bad update method", "update:\n  method: ftp\n"},
		{"server without url", "update:\n  method: server\n"},
		{"bad rate", "geo_api_rate: \"lots\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			writeFile(t, filepath.Join(base, "config", "form_guard.yml"), tt.body)
			if _, err := LoadMainConfig(base); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestLoadMainConfigMissingFile(t *testing.T) {
	cfg, err := LoadMainConfig(t.TempDir())
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if cfg == nil || cfg.Port != "25580" {
		t.Errorf("expected defaults alongside the error, got %+v", cfg)
	}
}

func TestLoadRules(t *testing.T) {
	rulePath := t.TempDir()
	writeFile(t, filepath.Join(rulePath, "Passthrough.conf"), `
# admin area
/wp-admin/*
/wp-login.php
^/api/v[0-9]+/
`)
	writeFile(t, filepath.Join(rulePath, "TrustedProxies.conf"), `
10.0.0.0/8
192.168.1.10
2001:db8::/32
not-an-ip
`)

	rs, err := LoadRules(rulePath)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}

	for path, want := range map[string]bool{
		"/wp-admin/options.php": true,
		"/wp-login.php":         true,
		"/api/v2/items":         true,
		"/contact":              false,
		"/wp-login.php.bak":     false,
	} {
		if got := rs.Passthrough.Match(path); got != want {
			t.Errorf("Passthrough.Match(%q) = %v, want %v", path, got, want)
		}
	}

	if rs.TrustedProxies.Empty() {
		t.Fatalf("trusted proxies not loaded")
	}
}

func TestLoadRulesDefaults(t *testing.T) {
	rs, err := LoadRules(t.TempDir())
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if !rs.Passthrough.Match("/wp-admin/index.php") || !rs.Passthrough.Match("/wp-json/wp/v2/posts") {
		t.Errorf("default passthrough paths missing")
	}
	if !rs.TrustedProxies.Empty() {
		t.Errorf("trusted proxies should be empty without a rule file")
	}
}

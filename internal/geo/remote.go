package geo

import (
	"context"
	"fmt"
	"form_guard/internal/cache"
	"form_guard/internal/dataType"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/time/rate"
)

const (
	RemoteCacheTTL       = 24 * time.Hour
	defaultRemoteTimeout = 2 * time.Second
)

// RemoteSource asks an ipapi.co style service for "/{ip}/country/".
// Any failure is reported as no data.
type RemoteSource struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Cache      cache.Store
	Limiter    *rate.Limiter
	ClientIP   IPFunc
	// Enabled is consulted per request so the setting can change at runtime.
	Enabled func() bool
}

func (s *RemoteSource) Name() dataType.CountrySource { return dataType.SourceRemote }

// CacheKey is the transient key for an IP address.
func CacheKey(ip string) string {
	return fmt.Sprintf("%s%016x", dataType.CountryCacheKeyPrefix, xxhash.Sum64String(ip))
}

func (s *RemoteSource) Lookup(ctx context.Context, r *http.Request) (string, bool) {
	if s.Enabled != nil && !s.Enabled() {
		return "", false
	}
	ip := s.ClientIP(r)
	if ip == "" {
		return "", false
	}

	key := CacheKey(ip)
	if s.Cache != nil {
		if cached, ok := s.Cache.Get(key); ok && ValidCode(cached) {
			return cached, true
		}
	}

	if s.Limiter != nil && !s.Limiter.Allow() {
		return "", false
	}

	code, err := s.fetch(ctx, ip)
	if err != nil {
		return "", false
	}
	if s.Cache != nil {
		s.Cache.Set(key, code, RemoteCacheTTL)
	}
	return code, true
}

func (s *RemoteSource) fetch(ctx context.Context, ip string) (string, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := strings.TrimRight(s.BaseURL, "/") + "/" + url.PathEscape(ip) + "/country/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Form Guard Proxy/"+dataType.FormGuardVersion)

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geo lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geo lookup status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", fmt.Errorf("failed to read geo response: %w", err)
	}
	code := cleanCode(string(body))
	if !ValidCode(code) {
		return "", fmt.Errorf("malformed geo response %q", string(body))
	}
	return code, nil
}

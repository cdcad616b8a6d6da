package geo

import (
	"context"
	"form_guard/internal/dataType"
	"net"
	"net/http"
	"regexp"
	"strings"
)

var countryPattern = regexp.MustCompile(`^[A-Z]{2}$`)

// ValidCode reports whether code is a two letter uppercase country code.
func ValidCode(code string) bool {
	return countryPattern.MatchString(code)
}

func cleanCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Source is one tier of the country fallback chain.
type Source interface {
	Name() dataType.CountrySource
	Lookup(ctx context.Context, r *http.Request) (string, bool)
}

// CookieSource reads a code remembered on a previous request.
type CookieSource struct {
	CookieName string
}

func (s CookieSource) Name() dataType.CountrySource { return dataType.SourceCookie }

func (s CookieSource) Lookup(_ context.Context, r *http.Request) (string, bool) {
	c, err := r.Cookie(s.CookieName)
	if err != nil {
		return "", false
	}
	code := cleanCode(c.Value)
	return code, ValidCode(code)
}

// EdgeHeaderSource trusts the country header of a CDN in front of the site.
// The CDN's own unknown marker is ignored.
type EdgeHeaderSource struct {
	Header string
}

func (s EdgeHeaderSource) Name() dataType.CountrySource { return dataType.SourceEdge }

func (s EdgeHeaderSource) Lookup(_ context.Context, r *http.Request) (string, bool) {
	if s.Header == "" {
		return "", false
	}
	code := cleanCode(r.Header.Get(s.Header))
	if code == dataType.UnknownCountry || !ValidCode(code) {
		return "", false
	}
	return code, true
}

// ServerHeaderSource checks geo headers set by the web server, in order.
type ServerHeaderSource struct {
	Headers []string
}

func (s ServerHeaderSource) Name() dataType.CountrySource { return dataType.SourceServer }

func (s ServerHeaderSource) Lookup(_ context.Context, r *http.Request) (string, bool) {
	for _, h := range s.Headers {
		code := cleanCode(r.Header.Get(h))
		if ValidCode(code) {
			return code, true
		}
	}
	return "", false
}

// IPFunc extracts the visitor address from a request.
type IPFunc func(r *http.Request) string

// DatabaseSource looks the visitor up in a local country database.
type DatabaseSource struct {
	DB       CountryDB
	ClientIP IPFunc
}

type CountryDB interface {
	Country(ip net.IP) (string, error)
}

func (s DatabaseSource) Name() dataType.CountrySource { return dataType.SourceDatabase }

func (s DatabaseSource) Lookup(_ context.Context, r *http.Request) (string, bool) {
	if s.DB == nil {
		return "", false
	}
	ip := net.ParseIP(s.ClientIP(r))
	if ip == nil {
		return "", false
	}
	code, err := s.DB.Country(ip)
	if err != nil {
		return "", false
	}
	code = cleanCode(code)
	return code, ValidCode(code)
}

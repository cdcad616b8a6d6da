package geo

import (
	"context"
	"form_guard/internal/dataType"
	"net/http"
	"time"
)

const CookieTTL = 24 * time.Hour

// Resolver walks its sources in order and returns the first code found.
type Resolver struct {
	Sources []Source
}

func NewResolver(sources ...Source) *Resolver {
	return &Resolver{Sources: sources}
}

func (res *Resolver) Resolve(ctx context.Context, r *http.Request) dataType.CountryResult {
	for _, src := range res.Sources {
		if code, ok := src.Lookup(ctx, r); ok {
			return dataType.CountryResult{Code: code, Source: src.Name()}
		}
	}
	return dataType.CountryResult{Code: dataType.UnknownCountry, Source: dataType.SourceNone}
}

type CookieOptions struct {
	Name   string
	Path   string
	Domain string
	Secure bool
}

// Remember stores the result in the client cookie so the next request is
// answered by the cookie tier. Results that came from the cookie are not
// written again.
func Remember(w http.ResponseWriter, result dataType.CountryResult, opts CookieOptions) {
	if result.Source == dataType.SourceCookie {
		return
	}
	name := opts.Name
	if name == "" {
		name = dataType.CountryCookieName
	}
	path := opts.Path
	if path == "" {
		path = "/"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    result.Code,
		Path:     path,
		Domain:   opts.Domain,
		MaxAge:   int(CookieTTL.Seconds()),
		Expires:  time.Now().Add(CookieTTL),
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

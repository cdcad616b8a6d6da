package server

import (
	"form_guard/internal/cache"
	"form_guard/internal/config"
	"form_guard/internal/dataType"
	"form_guard/internal/geo"
	"form_guard/internal/utils"
	"net/http"
)

// NewResolver assembles the country tiers in priority order: cookie, edge
// header, server geo headers, the optional local database and finally the
// remote lookup, which only runs while the settings enable it.
func NewResolver(cfg *config.MainConfig, rules *config.RuleSet, settings SettingsStore, transients cache.Store, db geo.CountryDB) (*geo.Resolver, error) {
	clientIP := func(r *http.Request) string {
		return geo.ClientIP(r, cfg.ConnectingIPHeaders, rules.TrustedProxies)
	}

	sources := []geo.Source{
		geo.CookieSource{CookieName: dataType.CountryCookieName},
	}
	if cfg.EdgeCountryHeader != "" {
		sources = append(sources, geo.EdgeHeaderSource{Header: cfg.EdgeCountryHeader})
	}
	if len(cfg.GeoHeaders) > 0 {
		sources = append(sources, geo.ServerHeaderSource{Headers: cfg.GeoHeaders})
	}
	if db != nil {
		sources = append(sources, geo.DatabaseSource{DB: db, ClientIP: clientIP})
	}

	limiter, err := utils.NewRateLimiter(cfg.GeoAPIRate)
	if err != nil {
		return nil, err
	}
	sources = append(sources, &geo.RemoteSource{
		BaseURL:  cfg.GeoAPIURL,
		Timeout:  cfg.GeoAPITimeout,
		Cache:    transients,
		Limiter:  limiter,
		ClientIP: clientIP,
		Enabled: func() bool {
			s, err := settings.Settings()
			return err == nil && s.UseGeoAPI
		},
	})
	return geo.NewResolver(sources...), nil
}

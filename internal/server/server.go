package server

import (
	"context"
	"errors"
	"fmt"
	"form_guard/internal/cache"
	"form_guard/internal/config"
	"form_guard/internal/dataType"
	"form_guard/internal/geo"
	"form_guard/internal/guard"
	"form_guard/internal/rewrite"
	"form_guard/internal/store"
	"form_guard/internal/utils"
	"html/template"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SettingsStore is the persistent side of the guard.
type SettingsStore interface {
	Settings() (dataType.GuardSettings, error)
	SaveSettings(dataType.GuardSettings) error
	ContactForms() ([]dataType.ContactForm, error)
	SaveContactForm(id uint, title string) error
	DeleteContactForm(id uint) error
}

// Server is the guarding reverse proxy in front of the site.
type Server struct {
	cfg      *config.MainConfig
	rules    *config.RuleSet
	store    SettingsStore
	resolver *geo.Resolver
	cache    cache.Store
	activity *ActivityTracker
	proxy    *httputil.ReverseProxy
	logger   *zap.Logger
	siteHost string
	notice   *template.Template
}

type Options struct {
	Config   *config.MainConfig
	Rules    *config.RuleSet
	Store    SettingsStore
	Resolver *geo.Resolver
	Cache    cache.Store
	Activity *ActivityTracker
	Logger   *zap.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Rules == nil || opts.Store == nil {
		return nil, errors.New("server: config, rules and store are required")
	}
	upstream, err := url.Parse(opts.Config.Upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream %q: %w", opts.Config.Upstream, err)
	}
	s := &Server{
		cfg:      opts.Config,
		rules:    opts.Rules,
		store:    opts.Store,
		resolver: opts.Resolver,
		cache:    opts.Cache,
		activity: opts.Activity,
		logger:   opts.Logger,
	}
	if s.resolver == nil {
		s.resolver = geo.NewResolver()
	}
	if s.cache == nil {
		s.cache = cache.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if opts.Config.SiteURL != "" {
		if u, err := url.Parse(opts.Config.SiteURL); err == nil {
			s.siteHost = u.Hostname()
		}
	}
	notice, err := rewrite.LoadNotice(opts.Config.ErrorPage)
	if err != nil {
		s.logger.Warn("Error loading notice page, using the built-in one", zap.Error(err))
	}
	s.notice = notice
	s.proxy = s.newReverseProxy(upstream)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqData := s.processRequestData(r)
	path := utils.RequestPath(r.URL.Path)

	if path == s.cfg.WebPath+"/health_check" {
		s.handleHealthCheck(w, reqData)
		return
	}

	settings, err := s.store.Settings()
	nonProduction := guard.IsNonProduction(reqData.Host, settings.AllowedHost, settings.Enabled)
	if err != nil {
		utils.LogError(reqData, fmt.Sprintf("Error loading settings: %v", err), "ServeHTTP")
		if !errors.Is(err, store.ErrStaleSettings) {
			// nothing known about the guard: keep protecting
			settings = failClosedSettings()
			nonProduction = true
		}
	}
	if !nonProduction {
		s.proxy.ServeHTTP(w, r)
		return
	}

	country := s.resolver.Resolve(r.Context(), r)
	geo.Remember(w, country, geo.CookieOptions{
		Path:   s.cfg.CookiePath,
		Domain: s.cfg.CookieDomain,
		Secure: reqData.TLS,
	})
	gc := &guardContext{
		reqData:  reqData,
		settings: settings,
		country:  country,
		message:  guard.MessagesFrom(settings).Select(country.Code),
	}
	utils.LogDebug(reqData, "non-production request", fmt.Sprintf("country=%s source=%s", country.Code, country.Source))

	if id, ok := contactFormFeedbackID(r); ok {
		s.handleContactFormFeedback(w, r, gc, id)
		return
	}
	if s.rules.Passthrough.Match(path) {
		s.proxy.ServeHTTP(w, r)
		return
	}
	if handled := s.checkFormPost(w, r, gc); handled {
		return
	}

	// the rewriter needs a plain body
	r.Header.Set("Accept-Encoding", "identity")
	s.proxy.ServeHTTP(w, r.WithContext(withGuardContext(r.Context(), gc)))
}

// failClosedSettings guard every form when the settings cannot be read.
func failClosedSettings() dataType.GuardSettings {
	settings := dataType.DefaultGuardSettings()
	settings.Enabled = true
	settings.DisabledCF7Forms = []int{}
	return settings
}

func (s *Server) processRequestData(r *http.Request) dataType.UserRequest {
	clientIP := geo.ClientIP(r, s.cfg.ConnectingIPHeaders, s.rules.TrustedProxies)

	userRequest := dataType.UserRequest{
		RemoteIP:  clientIP,
		Uri:       r.URL.RequestURI(),
		Host:      s.currentHost(r),
		UserAgent: r.UserAgent(),
		RequestID: uuid.NewString(),
		TLS:       r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https"),
	}
	return userRequest
}

// currentHost is the host the site is being served as: the configured
// site URL, then the connecting host headers, then the request's Host.
func (s *Server) currentHost(r *http.Request) string {
	if s.siteHost != "" {
		return s.siteHost
	}
	for _, headerName := range s.cfg.ConnectingHostHeaders {
		if hostVal := r.Header.Get(headerName); hostVal != "" {
			return stripPort(strings.TrimSpace(strings.Split(hostVal, ",")[0]))
		}
	}
	return stripPort(r.Host)
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.Trim(host, "[]")
}

// StartServer serves handler on addr until ctx is cancelled.
func StartServer(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", addr))
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

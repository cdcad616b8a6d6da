package dataType

const FormGuardVersion = "1.2.0"

const (
	PluginSlug = "form-guard"
	PluginName = "Form Guard (Disable on Non-Production)"
)

const (
	DefaultAllowedHost    = "www.bankofmakati.com.ph"
	DefaultMessage        = "🚧 Forms are disabled on this non-production domain."
	DefaultMessagePH      = "🚧 Ang website ay kasalukuyang nasa BETA. Pansamantalang naka-disable ang lahat ng forms."
	UnknownCountry        = "XX"
	CountryCookieName     = "fg_cc"
	ContactFormIDField    = "_wpcf7"
	ContactFormClass      = "wpcf7-form"
	DisabledFormClass     = "fg-disabled"
	SearchQueryFieldName  = "s"
	CountryCacheKeyPrefix = "fg_cc_"
)

type UserRequest struct {
	RemoteIP  string
	Uri       string
	Host      string
	UserAgent string
	RequestID string
	TLS       bool
}

// GuardSettings is the persisted guard configuration.
type GuardSettings struct {
	Enabled          bool   `json:"enabled"`
	AllowedHost      string `json:"allowed_host"`
	DefaultMessage   string `json:"default_message"`
	PHMessage        string `json:"ph_message"`
	UseGeoAPI        bool   `json:"use_geo_api"`
	DisabledCF7Forms []int  `json:"disabled_cf7_forms"`
}

// DefaultGuardSettings mirrors the values a fresh install starts with.
func DefaultGuardSettings() GuardSettings {
	return GuardSettings{
		Enabled:          false,
		AllowedHost:      DefaultAllowedHost,
		DefaultMessage:   DefaultMessage,
		PHMessage:        DefaultMessagePH,
		UseGeoAPI:        false,
		DisabledCF7Forms: []int{},
	}
}

// FormInfo describes what the policy needs to know about a rendered form.
type FormInfo struct {
	Role             string
	HasSearchInput   bool
	HasSearchParam   bool
	IsContactForm    bool
	ContactFormID    int
	HasContactFormID bool
}

func (f FormInfo) IsSearch() bool {
	return f.Role == "search" || f.HasSearchInput || f.HasSearchParam
}

type ContactForm struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Disabled bool   `json:"disabled"`
}

type CountrySource string

const (
	SourceNone     CountrySource = "none"
	SourceCookie   CountrySource = "cookie"
	SourceEdge     CountrySource = "edge-header"
	SourceServer   CountrySource = "server-header"
	SourceDatabase CountrySource = "geo-database"
	SourceRemote   CountrySource = "remote-lookup"
)

type CountryResult struct {
	Code   string
	Source CountrySource
}

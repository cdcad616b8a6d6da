package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"form_guard/internal/config"
	"form_guard/internal/dataType"
	"form_guard/internal/guard"
	"form_guard/internal/store"
	"form_guard/internal/updater"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UpdateChecker is what the admin API needs from the update client.
type UpdateChecker interface {
	Check(ctx context.Context) updater.Release
	Info(ctx context.Context) updater.PluginInfo
}

type AdminAPI struct {
	cfg       *config.MainConfig
	store     SettingsStore
	updates   UpdateChecker
	scheduler *updater.Scheduler
	activity  *ActivityTracker
	logger    *zap.Logger
}

type AdminOptions struct {
	Config    *config.MainConfig
	Store     SettingsStore
	Updates   UpdateChecker
	Scheduler *updater.Scheduler
	Activity  *ActivityTracker
	Logger    *zap.Logger
}

func NewAdminAPI(opts AdminOptions) *AdminAPI {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminAPI{
		cfg:       opts.Config,
		store:     opts.Store,
		updates:   opts.Updates,
		scheduler: opts.Scheduler,
		activity:  opts.Activity,
		logger:    logger,
	}
}

func (a *AdminAPI) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	api := r.Group("/api", a.requireToken)
	{
		api.GET("/settings", a.GetSettings)
		api.POST("/settings", a.UpdateSettings)
		api.GET("/forms", a.ListForms)
		api.POST("/forms", a.SaveForm)
		api.DELETE("/forms/:id", a.DeleteForm)
		api.GET("/preview", a.Preview)
		api.GET("/activity", a.Activity)
		api.GET("/update", a.CheckUpdate)
		api.GET("/update/info", a.UpdateInfo)
	}
	return r
}

func RespondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

func RespondError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"status": "error", "message": message})
}

func (a *AdminAPI) requireToken(c *gin.Context) {
	if a.cfg == nil || a.cfg.AdminToken == "" {
		c.Next()
		return
	}
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.cfg.AdminToken)) != 1 {
		RespondError(c, http.StatusUnauthorized, "Invalid token")
		return
	}
	c.Next()
}

func (a *AdminAPI) GetSettings(c *gin.Context) {
	settings, err := a.store.Settings()
	if err != nil {
		RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	RespondSuccess(c, settings)
}

// settingsRequest leaves omitted fields unchanged. The form list is taken
// raw and sanitized, so any JSON value is accepted there.
type settingsRequest struct {
	Enabled          *bool   `json:"enabled"`
	AllowedHost      *string `json:"allowed_host"`
	DefaultMessage   *string `json:"default_message"`
	PHMessage        *string `json:"ph_message"`
	UseGeoAPI        *bool   `json:"use_geo_api"`
	DisabledCF7Forms any     `json:"disabled_cf7_forms"`
}

func (a *AdminAPI) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	settings, err := a.store.Settings()
	if err != nil {
		RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if req.Enabled != nil {
		settings.Enabled = *req.Enabled
	}
	if req.AllowedHost != nil {
		settings.AllowedHost = strings.TrimSpace(*req.AllowedHost)
	}
	if req.DefaultMessage != nil {
		settings.DefaultMessage = *req.DefaultMessage
	}
	if req.PHMessage != nil {
		settings.PHMessage = *req.PHMessage
	}
	if req.UseGeoAPI != nil {
		settings.UseGeoAPI = *req.UseGeoAPI
	}
	if req.DisabledCF7Forms != nil {
		settings.DisabledCF7Forms = guard.SanitizeFormIDs(req.DisabledCF7Forms)
	}
	if err := a.store.SaveSettings(settings); err != nil {
		RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	saved, err := a.store.Settings()
	if err != nil {
		RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	a.logger.Info("settings updated",
		zap.Bool("enabled", saved.Enabled),
		zap.String("allowed_host", saved.AllowedHost),
		zap.Ints("disabled_cf7_forms", saved.DisabledCF7Forms))
	RespondSuccess(c, saved)
}

func (a *AdminAPI) ListForms(c *gin.Context) {
	forms, err := a.store.ContactForms()
	if err != nil {
		RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	RespondSuccess(c, forms)
}

type formRequest struct {
	ID    uint   `json:"id" binding:"required"`
	Title string `json:"title"`
}

func (a *AdminAPI) SaveForm(c *gin.Context) {
	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := a.store.SaveContactForm(req.ID, req.Title); err != nil {
		RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	a.ListForms(c)
}

func (a *AdminAPI) DeleteForm(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "Invalid form id")
		return
	}
	if err := a.store.DeleteContactForm(uint(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "Form not found")
			return
		}
		RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	RespondSuccess(c, gin.H{"id": id})
}

type previewResponse struct {
	Host             string `json:"host"`
	AllowedHost      string `json:"allowed_host"`
	NonProduction    bool   `json:"non_production"`
	Country          string `json:"country"`
	Message          string `json:"message"`
	ContactFormMode  string `json:"contact_form_mode"`
	DisabledCF7Forms []int  `json:"disabled_cf7_forms"`
}

// Preview shows what a visitor from country would see on host.
func (a *AdminAPI) Preview(c *gin.Context) {
	settings, err := a.store.Settings()
	if err != nil {
		RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	host := c.Query("host")
	if host == "" {
		host = stripPort(c.Request.Host)
	}
	country := strings.ToUpper(strings.TrimSpace(c.Query("country")))
	if country == "" {
		country = dataType.UnknownCountry
	}
	mode := "all"
	if len(settings.DisabledCF7Forms) > 0 {
		mode = "selected"
	}
	RespondSuccess(c, previewResponse{
		Host:             host,
		AllowedHost:      settings.AllowedHost,
		NonProduction:    guard.IsNonProduction(host, settings.AllowedHost, settings.Enabled),
		Country:          country,
		Message:          guard.MessagesFrom(settings).Select(country),
		ContactFormMode:  mode,
		DisabledCF7Forms: settings.DisabledCF7Forms,
	})
}

func (a *AdminAPI) Activity(c *gin.Context) {
	if a.activity != nil {
		a.activity.ProcessBatch()
	}
	RespondSuccess(c, a.activity.Snapshot())
}

func (a *AdminAPI) CheckUpdate(c *gin.Context) {
	if a.updates == nil {
		RespondError(c, http.StatusNotFound, "Updates are disabled")
		return
	}
	if a.scheduler != nil && c.Query("refresh") == "" {
		if rel, ok := a.scheduler.Last(); ok {
			RespondSuccess(c, rel)
			return
		}
	}
	RespondSuccess(c, a.updates.Check(c.Request.Context()))
}

func (a *AdminAPI) UpdateInfo(c *gin.Context) {
	if a.updates == nil {
		RespondError(c, http.StatusNotFound, "Updates are disabled")
		return
	}
	RespondSuccess(c, a.updates.Info(c.Request.Context()))
}

package updateserver

import (
	"form_guard/internal/dataType"
	"form_guard/internal/updater"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Catalog describes what the update server publishes.
type Catalog struct {
	Plugins    map[string]string // slug -> latest version
	ReleaseDir string
	Info       updater.RemoteInfo
}

// DefaultCatalog publishes the running build of form-guard.
func DefaultCatalog(releaseDir string) Catalog {
	info := updater.RemoteInfo{
		Name:             dataType.PluginName,
		Slug:             dataType.PluginSlug,
		Version:          dataType.FormGuardVersion,
		Author:           "Roy De La Torre",
		Requires:         "5.0",
		Tested:           "6.6",
		RequiresPHP:      "7.4",
		LastUpdated:      "2025-09-24",
		Description:      "Disables forms sitewide on non-production domains with IP geolocation support and selective Contact Form 7 blocking.",
		ShortDescription: "Protect development/staging sites from accidental form submissions.",
		Changelog:        updater.Changelog,
		Tags:             []string{"form", "security", "production", "development", "staging", "contact-form-7"},
	}
	return Catalog{
		Plugins:    map[string]string{dataType.PluginSlug: dataType.FormGuardVersion},
		ReleaseDir: releaseDir,
		Info:       info,
	}
}

type Handler struct {
	catalog Catalog
	logger  *zap.Logger
}

func New(catalog Catalog, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{catalog: catalog, logger: logger}
}

// Router mounts the three endpoints a plugin updater talks to.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), allowAnyOrigin)
	r.Any("/check-version.php", h.CheckVersion)
	r.Any("/plugin-info.php", h.PluginInfo)
	r.GET("/download.php", h.Download)
	return r
}

func allowAnyOrigin(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Next()
}

func pluginParam(c *gin.Context) string {
	if v := c.PostForm("plugin"); v != "" {
		return v
	}
	return c.Query("plugin")
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Plugin not found"})
}

func (h *Handler) CheckVersion(c *gin.Context) {
	plugin := pluginParam(c)
	latest, ok := h.catalog.Plugins[plugin]
	if !ok {
		notFound(c)
		return
	}
	current := c.PostForm("version")
	if current == "" {
		current = c.Query("version")
	}
	h.logger.Info("version check",
		zap.String("plugin", plugin),
		zap.String("current_version", current),
		zap.String("latest_version", latest),
		zap.String("ip", c.ClientIP()))

	c.JSON(http.StatusOK, gin.H{
		"version":      latest,
		"requires":     h.catalog.Info.Requires,
		"tested":       h.catalog.Info.Tested,
		"requires_php": h.catalog.Info.RequiresPHP,
	})
}

func (h *Handler) PluginInfo(c *gin.Context) {
	plugin := pluginParam(c)
	latest, ok := h.catalog.Plugins[plugin]
	if !ok || plugin != h.catalog.Info.Slug {
		notFound(c)
		return
	}
	info := h.catalog.Info
	info.Version = latest
	c.JSON(http.StatusOK, info)
}

func (h *Handler) Download(c *gin.Context) {
	plugin := c.Query("plugin")
	latest, ok := h.catalog.Plugins[plugin]
	if !ok {
		c.String(http.StatusNotFound, "Plugin not found")
		return
	}
	version := c.DefaultQuery("version", "latest")
	path := h.releasePath(plugin, version)
	if _, err := os.Stat(path); err != nil && version != "latest" {
		path = h.releasePath(plugin, "latest")
	}

	f, err := os.Open(path)
	if err != nil {
		c.String(http.StatusNotFound, "File not found")
		return
	}
	head := make([]byte, 512)
	n, _ := f.Read(head)
	f.Close()
	if http.DetectContentType(head[:n]) != "application/zip" {
		h.logger.Error("release is not a zip", zap.String("path", path))
		c.String(http.StatusInternalServerError, "Invalid file type")
		return
	}

	h.logger.Info("download",
		zap.String("plugin", plugin),
		zap.String("version", version),
		zap.String("latest_version", latest),
		zap.String("ip", c.ClientIP()),
		zap.String("user_agent", c.Request.UserAgent()))

	c.Header("Cache-Control", "no-cache, must-revalidate")
	c.Header("Expires", "0")
	c.FileAttachment(path, plugin+".zip")
}

func (h *Handler) releasePath(plugin, version string) string {
	return filepath.Join(h.catalog.ReleaseDir, filepath.Base(plugin+"-"+version+".zip"))
}

package updateserver

import (
	"archive/zip"
	"encoding/json"
	"form_guard/internal/updater"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	return New(DefaultCatalog(dir), nil).Router(), dir
}

func writeZip(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("form-guard/readme.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("form guard"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestCheckVersion(t *testing.T) {
	router, _ := newRouter(t)

	tests := []struct {
		name   string
		req    *http.Request
		status int
		body   map[string]interface{}
	}{
		{
			name: "post form",
			req: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/check-version.php",
					strings.NewReader(url.Values{"plugin": {"form-guard"}, "version": {"1.1.0"}}.Encode()))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return r
			}(),
			status: http.StatusOK,
			body: map[string]interface{}{
				"version": "1.2.0", "requires": "5.0", "tested": "6.6", "requires_php": "7.4",
			},
		},
		{
			name:   "query string",
			req:    httptest.NewRequest(http.MethodGet, "/check-version.php?plugin=form-guard", nil),
			status: http.StatusOK,
			body: map[string]interface{}{
				"version": "1.2.0", "requires": "5.0", "tested": "6.6", "requires_php": "7.4",
			},
		},
		{
			name:   "unknown plugin",
			req:    httptest.NewRequest(http.MethodGet, "/check-version.php?plugin=other", nil),
			status: http.StatusNotFound,
			body:   map[string]interface{}{"error": "Plugin not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tt.req)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			var got map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.body, got)
		})
	}
}

func TestPluginInfo(t *testing.T) {
	router, _ := newRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plugin-info.php?plugin=form-guard", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var info updater.RemoteInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "1.2.0", info.Version)
	assert.Equal(t, "Roy De La Torre", info.Author)
	assert.Contains(t, info.Changelog, "Version 1.2.0")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plugin-info.php", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownload(t *testing.T) {
	router, dir := newRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/download.php?plugin=form-guard", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "File not found", w.Body.String())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "form-guard-latest.zip"), []byte("plain text"), 0644))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/download.php?plugin=form-guard", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	writeZip(t, filepath.Join(dir, "form-guard-latest.zip"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/download.php?plugin=form-guard&version=9.9.9", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "form-guard.zip")
	assert.Equal(t, "no-cache, must-revalidate", w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/download.php?plugin=nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Plugin not found", w.Body.String())
}

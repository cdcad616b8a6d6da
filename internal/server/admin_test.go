package server

import (
	"bytes"
	"context"
	"encoding/json"
	"form_guard/internal/config"
	"form_guard/internal/dataType"
	"form_guard/internal/store"
	"form_guard/internal/updater"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpdates struct{}

func (fakeUpdates) Check(context.Context) updater.Release {
	return updater.Release{CurrentVersion: "1.2.0", RemoteVersion: "1.3.0", HasUpdate: true}
}

func (fakeUpdates) Info(context.Context) updater.PluginInfo {
	return updater.DefaultInfo("1.2.0")
}

func newAdminRouter(t *testing.T, token string) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st, err := store.Open(filepath.Join(t.TempDir(), "admin.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.DefaultMainConfig()
	cfg.AdminToken = token
	api := NewAdminAPI(AdminOptions{
		Config:   &cfg,
		Store:    st,
		Updates:  fakeUpdates{},
		Activity: NewActivityTracker(0, nil),
	})
	return api.Router(), st
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, r http.Handler, method, target string, body interface{}, token string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func TestAdminToken(t *testing.T) {
	router, _ := newAdminRouter(t, "secret")

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"wrong token", "nope", http.StatusUnauthorized},
		{"valid token", "secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := call(t, router, http.MethodGet, "/api/settings", nil, tt.token)
			assert.Equal(t, tt.expectedStatus, code)
			if tt.expectedStatus != http.StatusOK {
				assert.Equal(t, "error", env.Status)
			}
		})
	}
}

func TestAdminSettings(t *testing.T) {
	router, st := newAdminRouter(t, "")

	code, env := call(t, router, http.MethodGet, "/api/settings", nil, "")
	assert.Equal(t, http.StatusOK, code)
	var got dataType.GuardSettings
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, dataType.DefaultGuardSettings(), got)

	code, env = call(t, router, http.MethodPost, "/api/settings", map[string]interface{}{
		"enabled":            true,
		"allowed_host":       " www.example.com ",
		"disabled_cf7_forms": []interface{}{"12", 3, 3.0, "x", -4},
	}, "")
	assert.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.Enabled)
	assert.Equal(t, "www.example.com", got.AllowedHost)
	assert.Equal(t, []int{3, 12}, got.DisabledCF7Forms)
	assert.Equal(t, dataType.DefaultMessage, got.DefaultMessage)

	// a non-list allow-list sanitizes to empty, other fields stay put
	code, _ = call(t, router, http.MethodPost, "/api/settings", map[string]interface{}{
		"disabled_cf7_forms": "12",
	}, "")
	assert.Equal(t, http.StatusOK, code)
	stored, err := st.Settings()
	require.NoError(t, err)
	assert.Empty(t, stored.DisabledCF7Forms)
	assert.True(t, stored.Enabled)
}

func TestAdminForms(t *testing.T) {
	router, _ := newAdminRouter(t, "")

	code, _ := call(t, router, http.MethodPost, "/api/forms", map[string]interface{}{"title": "no id"}, "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := call(t, router, http.MethodPost, "/api/forms", map[string]interface{}{"id": 12, "title": "Contact"}, "")
	assert.Equal(t, http.StatusOK, code)
	var forms []dataType.ContactForm
	require.NoError(t, json.Unmarshal(env.Data, &forms))
	assert.Equal(t, []dataType.ContactForm{{ID: 12, Title: "Contact", Disabled: true}}, forms)

	code, _ = call(t, router, http.MethodDelete, "/api/forms/12", nil, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, router, http.MethodDelete, "/api/forms/12", nil, "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = call(t, router, http.MethodDelete, "/api/forms/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAdminPreview(t *testing.T) {
	router, st := newAdminRouter(t, "")
	settings := dataType.DefaultGuardSettings()
	settings.Enabled = true
	settings.AllowedHost = "www.example.com"
	settings.DisabledCF7Forms = []int{4}
	require.NoError(t, st.SaveSettings(settings))

	tests := []struct {
		query         string
		nonProduction bool
		message       string
	}{
		{"/api/preview?host=example.com&country=PH", false, dataType.DefaultMessagePH},
		{"/api/preview?host=staging.example.com&country=ph", true, dataType.DefaultMessagePH},
		{"/api/preview?host=staging.example.com", true, dataType.DefaultMessage},
	}
	for _, tt := range tests {
		code, env := call(t, router, http.MethodGet, tt.query, nil, "")
		assert.Equal(t, http.StatusOK, code)
		var got previewResponse
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, tt.nonProduction, got.NonProduction, tt.query)
		assert.Equal(t, tt.message, got.Message, tt.query)
		assert.Equal(t, "selected", got.ContactFormMode)
	}
}

func TestAdminUpdate(t *testing.T) {
	router, _ := newAdminRouter(t, "")

	code, env := call(t, router, http.MethodGet, "/api/update", nil, "")
	assert.Equal(t, http.StatusOK, code)
	var rel updater.Release
	require.NoError(t, json.Unmarshal(env.Data, &rel))
	assert.True(t, rel.HasUpdate)

	code, env = call(t, router, http.MethodGet, "/api/update/info", nil, "")
	assert.Equal(t, http.StatusOK, code)
	var info updater.PluginInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "Roy De La Torre", info.Author)

	disabled := NewAdminAPI(AdminOptions{Config: &config.MainConfig{}, Store: nil}).Router()
	code, _ = call(t, disabled, http.MethodGet, "/api/update", nil, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestActivityTracker(t *testing.T) {
	tracker := NewActivityTracker(0, nil)
	tracker.Record(ActivityEvent{Kind: EventPageGuarded, Host: "b.example", Country: "PH", Disabled: 2})
	tracker.Record(ActivityEvent{Kind: EventPageGuarded, Host: "a.example", Country: "XX", Disabled: 1})
	tracker.Record(ActivityEvent{Kind: EventSubmissionSuppressed, Host: "a.example", Country: "XX", ContactFormID: 7})
	tracker.ProcessBatch()

	snap := tracker.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a.example", snap[0].Host)
	assert.Equal(t, int64(1), snap[0].PagesGuarded)
	assert.Equal(t, int64(1), snap[0].SubmissionsBlocked)
	assert.Equal(t, int64(2), snap[0].Countries["XX"])
	assert.Equal(t, int64(2), snap[1].FormsDisabled)

	var nilTracker *ActivityTracker
	nilTracker.Record(ActivityEvent{})
	assert.Empty(t, nilTracker.Snapshot())
}

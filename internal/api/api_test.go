package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"octopanel/internal/app"
	"octopanel/internal/config"
	"octopanel/internal/domain"
	"octopanel/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	*Server
	handler http.Handler
	token   string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		AppName:      "Octopanel",
		ServersPath:  filepath.Join(dir, "servers"),
		PublicPath:   filepath.Join(dir, "public"),
		DatabasePath: filepath.Join(dir, "panel.db"),
		JWTSecret:    "test-secret",
		Locales:      []string{"en", "de"},
		Stats:        config.StatsConfig{Interval: time.Second},
	}

	c, err := app.NewContainer(cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Supervisor.KillAll()
		c.Close()
	})
	c.Updater.TagsURL = "http://127.0.0.1:1/tags"

	api := NewAPIServer(c)
	ta := &testAPI{Server: api, handler: api.Handler()}

	rec := ta.do(t, http.MethodPost, "/auth/setup", `{"username":"admin","password":"password123"}`, "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	ta.token = resp.Token
	return ta
}

func (ta *testAPI) do(t *testing.T, method, path, body, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if ta.token != "" {
		req.Header.Set("Authorization", "Bearer "+ta.token)
	}
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	return rec
}

func validSettingsForm() url.Values {
	return url.Values{
		"_method":                       {"PATCH"},
		"app:name":                      {"Octo Hosting"},
		"pterodactyl:auth:2fa_required": {"1"},
		"app:locale":                    {"de"},
		"theme:primary_color":           {"#112233"},
		"theme:border_radius":           {"8"},
	}
}

func TestSetupOnlyOnce(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodPost, "/auth/setup", `{"username":"other","password":"password123"}`, "application/json")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogin(t *testing.T) {
	ta := newTestAPI(t)
	ta.token = ""

	rec := ta.do(t, http.MethodPost, "/auth/login", `{"username":"admin","password":"wrong"}`, "application/json")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ta.do(t, http.MethodPost, "/auth/login", `{"username":"admin","password":"password123"}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.User.RootAdmin)
	assert.Empty(t, resp.User.Password)

	rec = ta.do(t, http.MethodPost, "/auth/logout", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestClientRoutesRequireToken(t *testing.T) {
	ta := newTestAPI(t)
	ta.token = ""

	rec := ta.do(t, http.MethodGet, "/api/client/servers", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ta.token = "garbage"
	rec = ta.do(t, http.MethodGet, "/api/client/servers", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublicSiteSettingsDefaults(t *testing.T) {
	ta := newTestAPI(t)
	ta.token = ""

	rec := ta.do(t, http.MethodGet, "/api/settings", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var site domain.SiteSettings
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&site))
	assert.Equal(t, "Octopanel", site.Name)
	assert.Equal(t, domain.DefaultPrimaryColor, site.Theme.PrimaryColor)
	assert.Equal(t, domain.DefaultBorderRadius, site.Theme.BorderRadius)
}

func TestSettingsFormSuccessRedirectsWithFlash(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodPost, "/admin/settings", validSettingsForm().Encode(), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/settings", rec.Header().Get("Location"))

	v, err := ta.Store.GetSetting(domain.KeyPrimaryColor)
	require.NoError(t, err)
	assert.Equal(t, "#112233", v)
	v, err = ta.Store.GetSetting(domain.KeyAppLocale)
	require.NoError(t, err)
	assert.Equal(t, "de", v)

	var flashC *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookie {
			flashC = c
		}
	}
	require.NotNil(t, flashC)

	req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
	req.Header.Set("Authorization", "Bearer "+ta.token)
	req.AddCookie(flashC)
	page := httptest.NewRecorder()
	ta.handler.ServeHTTP(page, req)

	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "updated successfully")
	assert.Contains(t, page.Body.String(), "Octo Hosting")
}

func TestSettingsFormValidationRerenders(t *testing.T) {
	ta := newTestAPI(t)

	form := validSettingsForm()
	form.Set("app:name", "Kept Name")
	form.Set("theme:card_style", "neon")

	rec := ta.do(t, http.MethodPost, "/admin/settings", form.Encode(), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Kept Name")
	assert.Contains(t, rec.Body.String(), `class="error"`)

	all, err := ta.Store.AllSettings()
	require.NoError(t, err)
	assert.NotContains(t, all, domain.KeyAppName)
}

func TestSettingsFormLogoUpload(t *testing.T) {
	ta := newTestAPI(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range validSettingsForm() {
		require.NoError(t, mw.WriteField(k, vs[0]))
	}
	part, err := mw.CreateFormFile("logo_file", "brand.png")
	require.NoError(t, err)
	part.Write([]byte("\x89PNG fake"))
	require.NoError(t, mw.Close())

	rec := ta.do(t, http.MethodPost, "/admin/settings", body.String(), mw.FormDataContentType())
	require.Equal(t, http.StatusSeeOther, rec.Code)

	logo, err := ta.Store.GetSetting(domain.KeyAppLogo)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(logo, "/storage/logos/logo_"))
	assert.True(t, strings.HasSuffix(logo, ".png"))

	ta.token = ""
	rec = ta.do(t, http.MethodGet, logo, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "\x89PNG fake", rec.Body.String())
}

func TestSettingsFormLogoFailureKeepsValues(t *testing.T) {
	ta := newTestAPI(t)
	require.NoError(t, os.MkdirAll(ta.Config.PublicPath, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(ta.Config.PublicPath, "logos"), []byte("not a dir"), 0644))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range validSettingsForm() {
		require.NoError(t, mw.WriteField(k, vs[0]))
	}
	part, err := mw.CreateFormFile("logo_file", "brand.png")
	require.NoError(t, err)
	part.Write([]byte("\x89PNG fake"))
	require.NoError(t, mw.Close())

	rec := ta.do(t, http.MethodPost, "/admin/settings", body.String(), mw.FormDataContentType())
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Octo Hosting")
	assert.Contains(t, rec.Body.String(), `class="alert alert-danger"`)
	assert.Contains(t, rec.Body.String(), "failed to upload logo")

	all, err := ta.Store.AllSettings()
	require.NoError(t, err)
	for _, key := range []string{domain.KeyAppName, domain.KeyAppLocale, domain.KeyPrimaryColor, domain.KeyAppLogo} {
		assert.NotContains(t, all, key)
	}
}

func TestSettingsAPIValidationErrors(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodPatch, "/api/application/settings",
		`{"app:name":"","pterodactyl:auth:2fa_required":5,"app:locale":"en"}`, "application/json")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Errors, domain.KeyAppName)
	assert.Contains(t, resp.Errors, domain.KeyTwoFactor)

	rec = ta.do(t, http.MethodPatch, "/api/application/settings",
		`{"app:name":"Json Panel","pterodactyl:auth:2fa_required":2,"app:locale":"en","theme:text_contrast":90}`, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	v, err := ta.Store.GetSetting(domain.KeyTextContrast)
	require.NoError(t, err)
	assert.Equal(t, "90", v)
}

func TestServerEndpoints(t *testing.T) {
	ta := newTestAPI(t)
	require.NoError(t, ta.Store.SetPortRange(47200, 47220))

	rec := ta.do(t, http.MethodPost, "/api/application/servers",
		`{"name":"Lobby","startup":"sleep 30","limits":{"cpu":100,"memory":512,"disk":0}}`, "application/json")
	require.Equal(t, http.StatusCreated, rec.Code)

	var srv domain.Server
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&srv))

	rec = ta.do(t, http.MethodGet, "/api/client/servers/"+srv.UUID+"/resources", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res ResourcesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "stats", res.Object)
	assert.Equal(t, domain.PowerOffline, res.Attributes.CurrentState)
	assert.False(t, res.Attributes.IsSuspended)

	rec = ta.do(t, http.MethodPost, "/api/client/servers/"+srv.ID+"/power", `{"signal":"explode"}`, "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ta.do(t, http.MethodPost, "/api/client/servers/"+srv.ID+"/power", `{"signal":"kill"}`, "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ta.do(t, http.MethodGet, "/api/client/servers/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ta.do(t, http.MethodGet, "/api/client/servers/"+srv.ID+"/files?directory=/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = ta.do(t, http.MethodPost, "/api/application/servers/"+srv.ID+"/suspend", "", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ta.do(t, http.MethodPost, "/api/client/servers/"+srv.ID+"/power", `{"signal":"start"}`, "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ta.do(t, http.MethodGet, "/api/client/servers/"+srv.ID+"/resources", "", "")
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.True(t, res.Attributes.IsSuspended)

	rec = ta.do(t, http.MethodDelete, "/api/application/servers/"+srv.ID, "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMethodOverrideOnlyForForms(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(t, http.MethodPost, "/admin/settings", `{"_method":"PATCH"}`, "application/json")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

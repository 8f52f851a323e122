package api

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"octopanel/internal/settings"
	"octopanel/internal/updater"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	flashCookie     = "octopanel_flash"
	maxUploadMemory = 4 << 20
	successMessage  = "Panel settings have been updated successfully and the worker was restarted to apply these changes."
)

type flash struct {
	Kind    string
	Message string
}

type settingsPage struct {
	Values          map[string]string
	Errors          map[string]string
	Flash           *flash
	Languages       []settings.Language
	Version         updater.UpdateInfo
	CardStyles      []string
	AnimationSpeeds []string
}

func (api *Server) handleSiteSettings(w http.ResponseWriter, r *http.Request) {
	site, ok := api.Worker.Settings()
	if !ok {
		var err error
		site, err = settings.LoadSite(api.Store, api.Config.AppName, api.Config.Recaptcha)
		if err != nil {
			api.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, site)
}

func (api *Server) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	site, err := settings.LoadSite(api.Store, api.Config.AppName, api.Config.Recaptcha)
	if err != nil {
		api.writeError(w, err)
		return
	}
	form := settings.FormFromSite(site)
	api.renderSettings(w, r, http.StatusOK, form.Values(), nil, readFlash(w, r))
}

// handleSettingsForm handles the HTML form. Validation and upload failures
// re-render the page with the submitted values; success redirects back.
func (api *Server) handleSettingsForm(w http.ResponseWriter, r *http.Request) {
	form, closeFile, err := parseSettingsSubmission(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer closeFile()

	_, err = api.Settings.Submit(form)

	var verrs validation.Errors
	var uerr *settings.UploadError
	switch {
	case errors.As(err, &verrs):
		api.renderSettings(w, r, http.StatusUnprocessableEntity, form.Values(), fieldErrors(verrs), nil)
	case errors.As(err, &uerr):
		api.renderSettings(w, r, http.StatusInternalServerError, form.Values(), nil, &flash{Kind: "danger", Message: uerr.Error()})
	case err != nil:
		api.writeError(w, err)
	default:
		setFlash(w, flash{Kind: "success", Message: successMessage})
		http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
	}
}

func (api *Server) handleSettingsAPI(w http.ResponseWriter, r *http.Request) {
	form, closeFile, err := parseSettingsSubmission(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer closeFile()

	res, err := api.Settings.Submit(form)

	var verrs validation.Errors
	var uerr *settings.UploadError
	switch {
	case errors.As(err, &verrs):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"errors": fieldErrors(verrs)})
		return
	case errors.As(err, &uerr):
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": uerr.Error()})
		return
	case err != nil:
		api.writeError(w, err)
		return
	}

	failed := make(map[string]string, len(res.Failed))
	for k, e := range res.Failed {
		failed[k] = e.Error()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"values": res.Values,
		"failed": failed,
	})
}

func (api *Server) renderSettings(w http.ResponseWriter, r *http.Request, status int, values, errs map[string]string, fl *flash) {
	page := settingsPage{
		Values:          values,
		Errors:          errs,
		Flash:           fl,
		Languages:       api.Settings.Languages(),
		Version:         api.Updater.Check(r.Context()),
		CardStyles:      []string{"gradient", "solid", "glassmorphism"},
		AnimationSpeeds: []string{"fast", "normal", "slow"},
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := api.pages.ExecuteTemplate(w, "settings.html", page); err != nil {
		api.Logger.Error("Could not render settings page", "error", err)
	}
}

// parseSettingsSubmission reads a JSON, urlencoded or multipart submission.
// The returned func closes an attached logo file.
func parseSettingsSubmission(r *http.Request) (settings.Form, func(), error) {
	noop := func() {}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return settings.Form{}, noop, fmt.Errorf("invalid JSON: %w", err)
		}
		return settings.FormFromValues(func(key string) string { return jsonString(body[key]) }), noop, nil
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			return settings.Form{}, noop, err
		}
	} else if err := r.ParseForm(); err != nil {
		return settings.Form{}, noop, err
	}

	form := settings.FormFromValues(r.FormValue)

	file, header, err := r.FormFile("logo_file")
	switch {
	case err == nil:
		form.LogoFile = &settings.Upload{Filename: header.Filename, Size: header.Size, Content: file}
		return form, func() { file.Close() }, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return form, noop, nil
	default:
		return settings.Form{}, noop, err
	}
}

func jsonString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(t)
	}
}

func fieldErrors(verrs validation.Errors) map[string]string {
	out := make(map[string]string, len(verrs))
	for k, e := range verrs {
		out[k] = e.Error()
	}
	return out
}

func setFlash(w http.ResponseWriter, f flash) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    f.Kind + ":" + url.QueryEscape(f.Message),
		Path:     "/admin",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// readFlash consumes the flash cookie.
func readFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/admin", MaxAge: -1})

	kind, msg, ok := strings.Cut(c.Value, ":")
	if !ok {
		return nil
	}
	msg, err = url.QueryUnescape(msg)
	if err != nil {
		return nil
	}
	return &flash{Kind: kind, Message: msg}
}

package sdk

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
)

// LogoFile is an image attached to a settings submission.
type LogoFile struct {
	Name    string
	Content io.Reader
}

func (c *Client) GetSiteSettings(ctx context.Context) (*SiteSettings, error) {
	var s SiteSettings
	if err := c.get(ctx, "/api/settings", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSettings submits settings keys. With a logo the request is sent as a
// multipart form through the method override, otherwise as JSON.
func (c *Client) UpdateSettings(ctx context.Context, values map[string]string, logo *LogoFile) (*SettingsResult, error) {
	var res SettingsResult
	if logo == nil {
		err := c.patch(ctx, "/api/application/settings", values, &res)
		return &res, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("_method", http.MethodPatch); err != nil {
		return nil, err
	}
	for k, v := range values {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	part, err := mw.CreateFormFile("logo_file", filepath.Base(logo.Name))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, logo.Content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	err = c.do(ctx, http.MethodPost, "/api/application/settings", mw.FormDataContentType(), &body, &res)
	return &res, err
}

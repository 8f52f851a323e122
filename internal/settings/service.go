package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"octopanel/internal/domain"
)

// UploadError reports a failed logo upload. Nothing is persisted when it is
// returned.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return "failed to upload logo: " + e.Err.Error()
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Restarter is notified after a successful submission. It must not block.
type Restarter interface {
	Restart()
}

// Result describes a persisted submission. Failed holds the keys whose write
// failed; the others were kept.
type Result struct {
	Values map[string]string
	Failed map[string]error
}

type Service struct {
	repo      domain.SettingRepository
	logos     *LogoStore
	langs     []Language
	restarter Restarter
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo domain.SettingRepository, logos *LogoStore, locales []string, restarter Restarter, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		logos:     logos,
		langs:     AvailableLanguages(locales),
		restarter: restarter,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) Languages() []Language {
	return s.langs
}

// Submit validates and persists a settings form. A validation.Errors or
// *UploadError return means nothing was written.
func (s *Service) Submit(form Form) (*Result, error) {
	if err := form.Validate(s.langs); err != nil {
		return nil, err
	}

	values := form.Values()

	if form.LogoFile != nil {
		url, err := s.replaceLogo(form.LogoFile)
		if err != nil {
			s.logger.Error("Logo upload failed", "error", err)
			return nil, &UploadError{Err: err}
		}
		values[domain.KeyAppLogo] = url
		s.logger.Info("Logo uploaded", "url", url)
	}

	res := &Result{Values: values, Failed: map[string]error{}}
	for _, key := range FormKeys {
		if err := s.repo.SetSetting(key, values[key]); err != nil {
			res.Failed[key] = err
			s.logger.Error("Failed to persist setting", "key", key, "error", err)
		}
	}

	if s.restarter != nil {
		s.restarter.Restart()
	}

	return res, nil
}

// replaceLogo writes the new logo before removing the previous one, so a
// failed write leaves the current logo in place. Only logos stored under
// /storage/logos/ are removed; a failed removal is logged.
func (s *Service) replaceLogo(u *Upload) (string, error) {
	current, err := s.repo.GetSetting(domain.KeyAppLogo)
	if err != nil && !errors.Is(err, domain.ErrSettingNotFound) {
		return "", fmt.Errorf("could not read current logo: %w", err)
	}

	url, err := s.logos.Save(u, s.now())
	if err != nil {
		return "", err
	}

	if current != "" && current != url {
		if err := s.logos.Delete(current); err != nil {
			s.logger.Warn("Could not remove previous logo", "logo", current, "error", err)
		}
	}
	return url, nil
}

package settings

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogoURLPrefix marks logos that were uploaded through the panel and may be
// removed when replaced.
const LogoURLPrefix = "/storage/logos/"

// LogoStore keeps uploaded logos under <public>/logos.
type LogoStore struct {
	root string
}

func NewLogoStore(publicDir string) *LogoStore {
	return &LogoStore{root: publicDir}
}

func (s *LogoStore) Dir() string {
	return filepath.Join(s.root, "logos")
}

// Save writes the upload as logo_<unix>.<ext> and returns its public URL.
func (s *LogoStore) Save(u *Upload, now time.Time) (string, error) {
	if err := os.MkdirAll(s.Dir(), 0755); err != nil {
		return "", fmt.Errorf("could not create logo directory: %w", err)
	}

	name := fmt.Sprintf("logo_%d.%s", now.Unix(), u.Ext())
	path := filepath.Join(s.Dir(), name)

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("could not create logo file: %w", err)
	}

	if _, err := io.Copy(out, u.Content); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("could not write logo file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return "", err
	}

	return LogoURLPrefix + name, nil
}

// Delete removes a previously uploaded logo. URLs outside LogoURLPrefix are
// left alone.
func (s *LogoStore) Delete(url string) error {
	if !strings.HasPrefix(url, LogoURLPrefix) {
		return nil
	}
	name := strings.TrimPrefix(url, LogoURLPrefix)
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid logo path: %s", url)
	}

	err := os.Remove(filepath.Join(s.Dir(), name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

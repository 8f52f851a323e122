package settings

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"octopanel/internal/config"
	"octopanel/internal/domain"
	"octopanel/internal/logger"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu      sync.Mutex
	values  map[string]string
	writes  int
	failKey string
}

func newMemRepo() *memRepo {
	return &memRepo{values: map[string]string{}}
}

func (r *memRepo) GetSetting(key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[key]
	if !ok {
		return "", domain.ErrSettingNotFound
	}
	return v, nil
}

func (r *memRepo) SetSetting(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key == r.failKey {
		return errors.New("disk full")
	}
	r.writes++
	r.values[key] = value
	return nil
}

func (r *memRepo) AllSettings() (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out, nil
}

func (r *memRepo) GetPortRange() (int, int, error) { return 25565, 25600, nil }
func (r *memRepo) SetPortRange(int, int) error     { return nil }

type countingRestarter struct{ n int }

func (c *countingRestarter) Restart() { c.n++ }

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func validForm() Form {
	return Form{
		Name:      "Octopanel",
		TwoFactor: "0",
		Locale:    "en",
	}
}

func newTestService(t *testing.T, repo *memRepo) (*Service, *countingRestarter) {
	t.Helper()
	r := &countingRestarter{}
	svc := NewService(repo, NewLogoStore(t.TempDir()), []string{"en", "de"}, r, logger.Discard())
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return svc, r
}

func TestValidateRules(t *testing.T) {
	langs := AvailableLanguages([]string{"en", "de"})

	cases := []struct {
		name   string
		mutate func(f *Form)
		field  string
	}{
		{"missing name", func(f *Form) { f.Name = "" }, domain.KeyAppName},
		{"long name", func(f *Form) { f.Name = strings.Repeat("a", 192) }, domain.KeyAppName},
		{"bad logo url", func(f *Form) { f.Logo = "not a url" }, domain.KeyAppLogo},
		{"logo size too small", func(f *Form) { f.LogoSize = "15" }, domain.KeyAppLogoSize},
		{"logo size not int", func(f *Form) { f.LogoSize = "big" }, domain.KeyAppLogoSize},
		{"two factor", func(f *Form) { f.TwoFactor = "3" }, domain.KeyTwoFactor},
		{"unknown locale", func(f *Form) { f.Locale = "fr" }, domain.KeyAppLocale},
		{"primary color", func(f *Form) { f.PrimaryColor = "8b5cf6" }, domain.KeyPrimaryColor},
		{"card style", func(f *Form) { f.CardStyle = "flat" }, domain.KeyCardStyle},
		{"border radius", func(f *Form) { f.BorderRadius = "25" }, domain.KeyBorderRadius},
		{"animation speed", func(f *Form) { f.AnimationSpeed = "instant" }, domain.KeyAnimationSpeed},
		{"text contrast", func(f *Form) { f.TextContrast = "101" }, domain.KeyTextContrast},
		{"custom css", func(f *Form) { f.CustomCSS = strings.Repeat("x", 10001) }, domain.KeyCustomCSS},
		{"logo type", func(f *Form) { f.LogoFile = &Upload{Filename: "logo.gif", Size: 10} }, "logo_file"},
		{"logo size bytes", func(f *Form) { f.LogoFile = &Upload{Filename: "logo.png", Size: maxLogoBytes + 1} }, "logo_file"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := validForm()
			tc.mutate(&f)
			err := f.Validate(langs)
			require.Error(t, err)

			var verrs validation.Errors
			require.True(t, errors.As(err, &verrs))
			assert.Contains(t, verrs, tc.field)
		})
	}
}

func TestValidateAcceptsOptionalFields(t *testing.T) {
	f := validForm()
	f.Logo = "https://cdn.example.com/logo.png"
	f.LogoSize = "48"
	f.PrimaryColor = "#8B5CF6"
	f.CardStyle = "glassmorphism"
	f.BorderRadius = "0"
	f.AnimationSpeed = "slow"
	f.TextContrast = "100"
	f.LogoFile = &Upload{Filename: "Logo.PNG", Size: maxLogoBytes}

	assert.NoError(t, f.Validate(AvailableLanguages([]string{"en"})))

	f.Logo = "/storage/logos/logo_1.png"
	assert.NoError(t, f.Validate(AvailableLanguages([]string{"en"})))
}

func TestSubmitValidationPersistsNothing(t *testing.T) {
	repo := newMemRepo()
	svc, restarter := newTestService(t, repo)

	f := validForm()
	f.TwoFactor = "9"

	_, err := svc.Submit(f)
	require.Error(t, err)
	assert.Equal(t, 0, repo.writes)
	assert.Equal(t, 0, restarter.n)
}

func TestSubmitUploadFailurePersistsNothing(t *testing.T) {
	repo := newMemRepo()
	repo.values[domain.KeyAppLogo] = "/storage/logos/logo_1.png"
	svc, restarter := newTestService(t, repo)

	require.NoError(t, os.MkdirAll(svc.logos.Dir(), 0755))
	old := filepath.Join(svc.logos.Dir(), "logo_1.png")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0644))

	f := validForm()
	f.Name = "Renamed"
	f.LogoFile = &Upload{Filename: "logo.png", Size: 10, Content: failingReader{}}

	_, err := svc.Submit(f)

	var uerr *UploadError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, 0, repo.writes)
	assert.Equal(t, 0, restarter.n)
	assert.Equal(t, "/storage/logos/logo_1.png", repo.values[domain.KeyAppLogo])

	assert.FileExists(t, old)
	entries, _ := os.ReadDir(svc.logos.Dir())
	assert.Len(t, entries, 1)
}

func TestSubmitStoresLogoAndReplacesPrevious(t *testing.T) {
	repo := newMemRepo()
	svc, restarter := newTestService(t, repo)

	require.NoError(t, os.MkdirAll(svc.logos.Dir(), 0755))
	old := filepath.Join(svc.logos.Dir(), "logo_1.png")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0644))
	repo.values[domain.KeyAppLogo] = "/storage/logos/logo_1.png"

	f := validForm()
	f.Logo = "https://ignored.example.com/logo.png"
	f.LogoFile = &Upload{Filename: "new.webp", Size: 3, Content: bytes.NewBufferString("new")}

	res, err := svc.Submit(f)
	require.NoError(t, err)

	assert.Equal(t, "/storage/logos/logo_1700000000.webp", res.Values[domain.KeyAppLogo])
	assert.Equal(t, "/storage/logos/logo_1700000000.webp", repo.values[domain.KeyAppLogo])
	assert.NoFileExists(t, old)
	assert.FileExists(t, filepath.Join(svc.logos.Dir(), "logo_1700000000.webp"))
	assert.Equal(t, 1, restarter.n)
}

func TestSubmitKeepsExternalLogo(t *testing.T) {
	repo := newMemRepo()
	svc, _ := newTestService(t, repo)

	outside := filepath.Join(t.TempDir(), "keep.png")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))
	repo.values[domain.KeyAppLogo] = "https://cdn.example.com/keep.png"

	f := validForm()
	f.LogoFile = &Upload{Filename: "a.png", Size: 1, Content: bytes.NewBufferString("a")}

	_, err := svc.Submit(f)
	require.NoError(t, err)
	assert.FileExists(t, outside)
}

func TestSubmitWritesKeysIndependently(t *testing.T) {
	repo := newMemRepo()
	repo.failKey = domain.KeyCustomCSS
	svc, restarter := newTestService(t, repo)

	f := validForm()
	f.PrimaryColor = "#112233"

	res, err := svc.Submit(f)
	require.NoError(t, err)

	assert.Contains(t, res.Failed, domain.KeyCustomCSS)
	assert.Len(t, res.Failed, 1)
	assert.Equal(t, len(FormKeys)-1, repo.writes)
	assert.Equal(t, "#112233", repo.values[domain.KeyPrimaryColor])
	assert.Equal(t, "", repo.values[domain.KeyAppLogoSize])
	assert.Equal(t, 1, restarter.n)
}

func TestLoadSiteDefaults(t *testing.T) {
	repo := newMemRepo()
	repo.values[domain.KeyAppName] = "My Panel"
	repo.values[domain.KeyBorderRadius] = "8"
	repo.values[domain.KeyCardStyle] = ""

	site, err := LoadSite(repo, "Octopanel", config.RecaptchaConfig{Enabled: true, SiteKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, "My Panel", site.Name)
	assert.Equal(t, "en", site.Locale)
	assert.Equal(t, 8, site.Theme.BorderRadius)
	assert.Equal(t, domain.DefaultCardStyle, site.Theme.CardStyle)
	assert.Equal(t, domain.DefaultPrimaryColor, site.Theme.PrimaryColor)
	assert.Equal(t, domain.DefaultTextContrast, site.Theme.TextContrast)
	assert.True(t, site.Recaptcha.Enabled)
	assert.Equal(t, "k", site.Recaptcha.SiteKey)
}

func TestAvailableLanguages(t *testing.T) {
	langs := AvailableLanguages([]string{"en", "de", "!!"})
	require.Len(t, langs, 2)
	assert.Equal(t, "en", langs[0].Code)
	assert.Equal(t, "English", langs[0].Name)
	assert.Equal(t, "Deutsch", langs[1].Name)
}

func TestLogoStoreDeleteRejectsTraversal(t *testing.T) {
	s := NewLogoStore(t.TempDir())
	assert.Error(t, s.Delete("/storage/logos/../config.json"))
	assert.NoError(t, s.Delete("/storage/logos/missing.png"))
	assert.NoError(t, s.Delete("https://example.com/x.png"))
}

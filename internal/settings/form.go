package settings

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"octopanel/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const maxLogoBytes = 2048 * 1024

var (
	hexColor       = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	logoExtensions = []string{"png", "jpg", "jpeg", "svg", "webp"}
)

// Upload is an attached logo file.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

func (u *Upload) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(u.Filename), "."))
}

// Form carries raw submitted values. JSON tags are the settings keys so that
// validation errors are reported per key.
type Form struct {
	Name           string `json:"app:name"`
	Logo           string `json:"app:logo"`
	LogoSize       string `json:"app:logo_size"`
	TwoFactor      string `json:"pterodactyl:auth:2fa_required"`
	Locale         string `json:"app:locale"`
	PrimaryColor   string `json:"theme:primary_color"`
	SecondaryColor string `json:"theme:secondary_color"`
	CardStyle      string `json:"theme:card_style"`
	BorderRadius   string `json:"theme:border_radius"`
	AnimationSpeed string `json:"theme:animation_speed"`
	TextContrast   string `json:"theme:text_contrast"`
	CustomCSS      string `json:"theme:custom_css"`

	LogoFile *Upload `json:"logo_file"`
}

// FormKeys lists the persisted keys in submission order.
var FormKeys = []string{
	domain.KeyAppName,
	domain.KeyAppLogo,
	domain.KeyAppLogoSize,
	domain.KeyTwoFactor,
	domain.KeyAppLocale,
	domain.KeyPrimaryColor,
	domain.KeySecondaryColor,
	domain.KeyCardStyle,
	domain.KeyBorderRadius,
	domain.KeyAnimationSpeed,
	domain.KeyTextContrast,
	domain.KeyCustomCSS,
}

func (f *Form) fields() map[string]*string {
	return map[string]*string{
		domain.KeyAppName:        &f.Name,
		domain.KeyAppLogo:        &f.Logo,
		domain.KeyAppLogoSize:    &f.LogoSize,
		domain.KeyTwoFactor:      &f.TwoFactor,
		domain.KeyAppLocale:      &f.Locale,
		domain.KeyPrimaryColor:   &f.PrimaryColor,
		domain.KeySecondaryColor: &f.SecondaryColor,
		domain.KeyCardStyle:      &f.CardStyle,
		domain.KeyBorderRadius:   &f.BorderRadius,
		domain.KeyAnimationSpeed: &f.AnimationSpeed,
		domain.KeyTextContrast:   &f.TextContrast,
		domain.KeyCustomCSS:      &f.CustomCSS,
	}
}

// FormFromValues builds a Form from submitted key/value pairs. Unknown keys
// are ignored; values are trimmed.
func FormFromValues(get func(key string) string) Form {
	var f Form
	for key, ptr := range f.fields() {
		*ptr = strings.TrimSpace(get(key))
	}
	return f
}

// Values returns every persisted key with its submitted value.
func (f *Form) Values() map[string]string {
	out := make(map[string]string, len(FormKeys))
	for key, ptr := range f.fields() {
		out[key] = *ptr
	}
	return out
}

// Validate checks the form against the available locale list.
func (f *Form) Validate(langs []Language) error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Name, validation.Required, validation.RuneLength(1, 191)),
		validation.Field(&f.Logo,
			validation.RuneLength(0, 500),
			validation.When(!strings.HasPrefix(f.Logo, LogoURLPrefix), is.URL),
		),
		validation.Field(&f.LogoSize, intBetween(16, 100)),
		validation.Field(&f.TwoFactor, validation.Required, validation.In("0", "1", "2")),
		validation.Field(&f.Locale, validation.Required, validation.In(languageCodes(langs)...).Error("must be an available language")),
		validation.Field(&f.PrimaryColor, validation.Match(hexColor).Error("must be a hex color like #8b5cf6")),
		validation.Field(&f.SecondaryColor, validation.Match(hexColor).Error("must be a hex color like #7c3aed")),
		validation.Field(&f.CardStyle, validation.In("gradient", "solid", "glassmorphism")),
		validation.Field(&f.BorderRadius, intBetween(0, 24)),
		validation.Field(&f.AnimationSpeed, validation.In("fast", "normal", "slow")),
		validation.Field(&f.TextContrast, intBetween(0, 100)),
		validation.Field(&f.CustomCSS, validation.RuneLength(0, 10000)),
		validation.Field(&f.LogoFile, validation.By(validateLogo)),
	)
}

func intBetween(min, max int) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return errors.New("must be an integer")
		}
		if n < min || n > max {
			return fmt.Errorf("must be between %d and %d", min, max)
		}
		return nil
	})
}

func validateLogo(value interface{}) error {
	u, _ := value.(*Upload)
	if u == nil {
		return nil
	}
	ext := u.Ext()
	valid := false
	for _, e := range logoExtensions {
		if ext == e {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("must be a file of type: %s", strings.Join(logoExtensions, ", "))
	}
	if u.Size > maxLogoBytes {
		return fmt.Errorf("may not be greater than %d kilobytes", maxLogoBytes/1024)
	}
	return nil
}

// FormFromSite pre-fills a form with the effective site settings.
func FormFromSite(site domain.SiteSettings) Form {
	f := Form{
		Name:           site.Name,
		Logo:           site.Logo,
		TwoFactor:      strconv.Itoa(site.TwoFactor),
		Locale:         site.Locale,
		PrimaryColor:   site.Theme.PrimaryColor,
		SecondaryColor: site.Theme.SecondaryColor,
		CardStyle:      site.Theme.CardStyle,
		BorderRadius:   strconv.Itoa(site.Theme.BorderRadius),
		AnimationSpeed: site.Theme.AnimationSpeed,
		TextContrast:   strconv.Itoa(site.Theme.TextContrast),
		CustomCSS:      site.Theme.CustomCSS,
	}
	if site.LogoSize > 0 {
		f.LogoSize = strconv.Itoa(site.LogoSize)
	}
	return f
}

package settings

import (
	"fmt"
	"strconv"

	"octopanel/internal/config"
	"octopanel/internal/domain"
)

// LoadSite assembles the public site settings from the key/value store,
// falling back to theme defaults for keys that were never saved.
func LoadSite(repo domain.SettingRepository, appName string, rc config.RecaptchaConfig) (domain.SiteSettings, error) {
	values, err := repo.AllSettings()
	if err != nil {
		return domain.SiteSettings{}, fmt.Errorf("error loading settings: %w", err)
	}

	str := func(key, def string) string {
		if v, ok := values[key]; ok && v != "" {
			return v
		}
		return def
	}
	num := func(key string, def int) int {
		if v, ok := values[key]; ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}

	site := domain.SiteSettings{
		Name:      str(domain.KeyAppName, appName),
		Logo:      values[domain.KeyAppLogo],
		LogoSize:  num(domain.KeyAppLogoSize, 0),
		Locale:    str(domain.KeyAppLocale, "en"),
		TwoFactor: num(domain.KeyTwoFactor, 0),
		Recaptcha: domain.Recaptcha{
			Enabled: rc.Enabled,
			SiteKey: rc.SiteKey,
		},
		Theme: domain.Theme{
			PrimaryColor:   str(domain.KeyPrimaryColor, domain.DefaultPrimaryColor),
			SecondaryColor: str(domain.KeySecondaryColor, domain.DefaultSecondaryColor),
			CardStyle:      str(domain.KeyCardStyle, domain.DefaultCardStyle),
			BorderRadius:   num(domain.KeyBorderRadius, domain.DefaultBorderRadius),
			AnimationSpeed: str(domain.KeyAnimationSpeed, domain.DefaultAnimationSpeed),
			TextContrast:   num(domain.KeyTextContrast, domain.DefaultTextContrast),
			CustomCSS:      values[domain.KeyCustomCSS],
		},
	}

	if v, ok := values[domain.KeyRecaptchaEnabled]; ok && v != "" {
		site.Recaptcha.Enabled = v == "1" || v == "true"
	}
	if v, ok := values[domain.KeyRecaptchaSiteKey]; ok && v != "" {
		site.Recaptcha.SiteKey = v
	}

	return site, nil
}

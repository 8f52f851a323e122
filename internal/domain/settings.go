package domain

const (
	KeyAppName          = "app:name"
	KeyAppLogo          = "app:logo"
	KeyAppLogoSize      = "app:logo_size"
	KeyAppLocale        = "app:locale"
	KeyTwoFactor        = "pterodactyl:auth:2fa_required"
	KeyRecaptchaEnabled = "recaptcha:enabled"
	KeyRecaptchaSiteKey = "recaptcha:website_key"
	KeyPrimaryColor     = "theme:primary_color"
	KeySecondaryColor   = "theme:secondary_color"
	KeyCardStyle        = "theme:card_style"
	KeyBorderRadius     = "theme:border_radius"
	KeyAnimationSpeed   = "theme:animation_speed"
	KeyTextContrast     = "theme:text_contrast"
	KeyCustomCSS        = "theme:custom_css"

	KeyPortRangeStart = "allocations:port_range_start"
	KeyPortRangeEnd   = "allocations:port_range_end"
)

// Theme defaults applied when a key was never saved.
const (
	DefaultPrimaryColor   = "#8b5cf6"
	DefaultSecondaryColor = "#7c3aed"
	DefaultCardStyle      = "gradient"
	DefaultBorderRadius   = 16
	DefaultAnimationSpeed = "normal"
	DefaultTextContrast   = 80
)

type Recaptcha struct {
	Enabled bool   `json:"enabled"`
	SiteKey string `json:"siteKey"`
}

type Theme struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	CardStyle      string `json:"cardStyle"`
	BorderRadius   int    `json:"borderRadius"`
	AnimationSpeed string `json:"animationSpeed"`
	TextContrast   int    `json:"textContrast"`
	CustomCSS      string `json:"customCss,omitempty"`
}

type SiteSettings struct {
	Name      string    `json:"name"`
	Logo      string    `json:"logo,omitempty"`
	LogoSize  int       `json:"logoSize,omitempty"`
	Locale    string    `json:"locale"`
	TwoFactor int       `json:"twoFactorRequired"`
	Recaptcha Recaptcha `json:"recaptcha"`
	Theme     Theme     `json:"theme"`
}

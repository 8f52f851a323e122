package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultConfigName   = "config.json"
	defaultServersDir   = "servers"
	defaultPublicDir    = "public"
	defaultDatabaseFile = "panel.db"
	defaultPort         = 23010
	envPrefix           = "OCTOPANEL"
)

type Config struct {
	Port         int             `mapstructure:"port" json:"port"`
	AppName      string          `mapstructure:"app_name" json:"app_name"`
	ServersPath  string          `mapstructure:"servers_path" json:"servers_path"`
	PublicPath   string          `mapstructure:"public_path" json:"public_path"`
	DatabasePath string          `mapstructure:"database_path" json:"database_path"`
	JWTSecret    string          `mapstructure:"jwt_secret" json:"jwt_secret,omitempty"`
	Locales      []string        `mapstructure:"locales" json:"locales"`
	Log          LogConfig       `mapstructure:"log" json:"log"`
	Valkey       ValkeyConfig    `mapstructure:"valkey" json:"valkey"`
	Stats        StatsConfig     `mapstructure:"stats" json:"stats"`
	Recaptcha    RecaptchaConfig `mapstructure:"recaptcha" json:"recaptcha"`
}

type LogConfig struct {
	Format string `mapstructure:"format" json:"format"`
	Level  string `mapstructure:"level" json:"level"`
}

// ValkeyConfig enables cross-instance settings invalidation when Addr is set.
type ValkeyConfig struct {
	Addr string `mapstructure:"addr" json:"addr"`
}

type StatsConfig struct {
	Interval time.Duration `mapstructure:"interval" json:"interval"`
}

type RecaptchaConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled"`
	SiteKey string `mapstructure:"site_key" json:"site_key"`
}

func IsDev() bool {
	return os.Getenv(envPrefix+"_DEV") == "1"
}

func AppDirName() string {
	if IsDev() {
		return "octopanel-dev"
	}
	return "octopanel"
}

// GetPort resolves the daemon port without loading the full configuration.
func GetPort() int {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetDefault("port", defaultPort)
	_ = v.BindEnv("port")
	if p := v.GetInt("port"); p > 0 {
		return p
	}
	return defaultPort
}

func LoadConfig(configDir string) (*Config, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, defaultConfigName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := writeDefaultConfig(configPath, configDir); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	setDefaults(v, configDir)

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Stats.Interval <= 0 {
		cfg.Stats.Interval = 2 * time.Second
	}
	if len(cfg.Locales) == 0 {
		cfg.Locales = []string{"en"}
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = LoadOrGenerateSecret(configDir)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("port", defaultPort)
	v.SetDefault("app_name", "Octopanel")
	v.SetDefault("servers_path", filepath.Join(configDir, defaultServersDir))
	v.SetDefault("public_path", filepath.Join(configDir, defaultPublicDir))
	v.SetDefault("database_path", filepath.Join(configDir, defaultDatabaseFile))
	v.SetDefault("locales", []string{"en"})
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("valkey.addr", "")
	v.SetDefault("stats.interval", 2*time.Second)
	v.SetDefault("recaptcha.enabled", false)
	v.SetDefault("recaptcha.site_key", "")
	v.SetDefault("jwt_secret", "")
}

func writeDefaultConfig(configPath, configDir string) error {
	v := viper.New()
	setDefaults(v, configDir)
	v.Set("stats.interval", "2s")
	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("error writing default config: %w", err)
	}
	return nil
}

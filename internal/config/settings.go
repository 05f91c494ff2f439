package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Settings holds the user-editable configuration. Every field has a default
// (see DefaultSettings) and can be overridden by a YAML file and then by CLI
// flags.
type Settings struct {
	Port         string `yaml:"port" validate:"required,numeric"`
	Language     string `yaml:"language" validate:"required,oneof=en zh"`
	LiuNianYears int    `yaml:"liu_nian_years" validate:"gte=1,lte=60"`
	RulesPath    string `yaml:"rules_path"`

	// Contact feed
	SourceMode string `yaml:"source_mode" validate:"omitempty,oneof=local web"`
	LocalPath  string `yaml:"local_path"`
	WebURL     string `yaml:"web_url" validate:"omitempty,url"`
	WebUser    string `yaml:"web_user"`
	RefreshMin int    `yaml:"refresh_interval_min" validate:"gte=0"`
}

var settingsValidate = validator.New()

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		Port:         DefaultPort,
		Language:     DefaultLanguage,
		LiuNianYears: DefaultLiuNianYears,
		RefreshMin:   DefaultRefreshMin,
	}
}

// LoadSettings reads path on top of DefaultSettings. An empty path, or a path
// that does not exist, yields the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("%s: %w", ErrSettingsLoad, err)
	}

	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("%s: %w", ErrSettingsLoad, err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}

	slog.Debug(MsgSettingsLoaded,
		LogKeyComponent, CompConfig,
		LogKeyPath, path,
	)
	return s, nil
}

// Validate checks field constraints and the port range.
func (s Settings) Validate() error {
	if err := settingsValidate.Struct(s); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsInvalid, err)
	}
	var port int
	if _, err := fmt.Sscanf(s.Port, "%d", &port); err != nil || port < MinPort || port > MaxPort {
		return fmt.Errorf("%s: port %q must be between %d and %d", ErrSettingsInvalid, s.Port, MinPort, MaxPort)
	}
	return nil
}

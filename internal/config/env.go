package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envOverrides holds the environment variables that win over the config file.
type envOverrides struct {
	APIBaseURL    string `env:"SIGNA_API_BASE_URL"`
	CameraFacing  string `env:"SIGNA_CAMERA_FACING"`
	AuthTokenFile string `env:"SIGNA_AUTH_TOKEN_FILE"`
	Verbose       *bool  `env:"SIGNA_DEBUG"`
}

// ApplyEnv overlays SIGNA_* environment values onto cfg and revalidates it.
// Only override notices are returned as warnings.
func ApplyEnv(cfg Config) (Config, []Warning, error) {
	var raw envOverrides
	if err := env.Parse(&raw); err != nil {
		return Config{}, nil, fmt.Errorf("parse env: %w", err)
	}

	warnings := make([]Warning, 0)
	if v := strings.TrimSpace(raw.APIBaseURL); v != "" {
		cfg.API.BaseURL = v
		warnings = append(warnings, Warning{Message: "api.base_url overridden by SIGNA_API_BASE_URL"})
	}
	if v := strings.ToLower(strings.TrimSpace(raw.CameraFacing)); v != "" {
		cfg.Camera.Facing = v
	}
	if v := strings.TrimSpace(raw.AuthTokenFile); v != "" {
		cfg.Auth.TokenFile = v
	}
	if raw.Verbose != nil {
		cfg.Debug.Verbose = *raw.Verbose
	}

	if _, err := Validate(cfg); err != nil {
		return Config{}, nil, fmt.Errorf("environment override: %w", err)
	}
	return cfg, warnings, nil
}

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	base := strings.TrimSpace(cfg.API.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("api.base_url must not be empty")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("api.base_url is invalid: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("api.base_url must use http or https")
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("api.base_url must include a host")
	}
	if parsed.Scheme == "http" && !isLoopbackHost(parsed.Hostname()) {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("api.base_url %q is plain http; clips leave this machine unencrypted", base)})
	}
	if !strings.HasPrefix(cfg.API.PredictPath, "/") {
		return nil, fmt.Errorf("api.predict_path must start with '/'")
	}
	if cfg.API.HealthPath != "" && !strings.HasPrefix(cfg.API.HealthPath, "/") {
		return nil, fmt.Errorf("api.health_path must start with '/'")
	}

	switch cfg.Camera.Facing {
	case FacingFront, FacingBack:
	default:
		return nil, fmt.Errorf("camera.facing must be one of: front, back")
	}
	if strings.TrimSpace(cfg.Camera.Front) == "" {
		return nil, fmt.Errorf("camera.front must not be empty")
	}
	if strings.TrimSpace(cfg.Camera.Back) == "" {
		return nil, fmt.Errorf("camera.back must not be empty")
	}

	if strings.TrimSpace(cfg.Capture.FFmpeg) == "" {
		return nil, fmt.Errorf("capture.ffmpeg must not be empty")
	}
	if cfg.Capture.MaxSeconds <= 0 {
		return nil, fmt.Errorf("capture.max_seconds must be > 0")
	}
	if cfg.Capture.MaxSeconds > 60 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("capture.max_seconds=%d is advisory; long clips slow down recognition", cfg.Capture.MaxSeconds)})
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if cfg.Clipboard.Raw != "" && len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd is configured but empty")
	}

	if endpoint := strings.TrimSpace(cfg.Debug.TraceEndpoint); endpoint != "" {
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			return nil, fmt.Errorf("debug.trace_endpoint is invalid: %w", err)
		}
	}

	return warnings, nil
}

func isLoopbackHost(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

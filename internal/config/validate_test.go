package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultConfig(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateMatrix(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty base url", mutate: func(c *Config) { c.API.BaseURL = "" }, wantErr: "api.base_url must not be empty"},
		{name: "ftp base url", mutate: func(c *Config) { c.API.BaseURL = "ftp://host" }, wantErr: "http or https"},
		{name: "base url without host", mutate: func(c *Config) { c.API.BaseURL = "http://" }, wantErr: "include a host"},
		{name: "relative predict path", mutate: func(c *Config) { c.API.PredictPath = "api/predict" }, wantErr: "api.predict_path"},
		{name: "relative health path", mutate: func(c *Config) { c.API.HealthPath = "health" }, wantErr: "api.health_path"},
		{name: "sideways facing", mutate: func(c *Config) { c.Camera.Facing = "left" }, wantErr: "camera.facing"},
		{name: "empty front device", mutate: func(c *Config) { c.Camera.Front = " " }, wantErr: "camera.front"},
		{name: "empty back device", mutate: func(c *Config) { c.Camera.Back = "" }, wantErr: "camera.back"},
		{name: "empty ffmpeg", mutate: func(c *Config) { c.Capture.FFmpeg = "" }, wantErr: "capture.ffmpeg"},
		{name: "zero max seconds", mutate: func(c *Config) { c.Capture.MaxSeconds = 0 }, wantErr: "capture.max_seconds"},
		{name: "unknown indicator backend", mutate: func(c *Config) { c.Indicator.Backend = "tray" }, wantErr: "indicator.backend"},
		{name: "desktop without app name", mutate: func(c *Config) { c.Indicator.DesktopAppName = "" }, wantErr: "desktop_app_name"},
		{name: "negative error timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "error_timeout_ms"},
		{name: "blank clipboard argv", mutate: func(c *Config) { c.Clipboard = CommandConfig{Raw: "  "} }, wantErr: "clipboard_cmd"},
		{name: "bad trace endpoint", mutate: func(c *Config) { c.Debug.TraceEndpoint = "not a url" }, wantErr: "debug.trace_endpoint"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateWarnsOnRemotePlainHTTP(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "http://192.168.43.12:3000"

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "plain http")
}

func TestValidateWarnsOnLongAdvisoryLimit(t *testing.T) {
	cfg := Default()
	cfg.Capture.MaxSeconds = 90

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "advisory")
}

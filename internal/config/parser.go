package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	API       *jsoncAPI       `json:"api"`
	Camera    *jsoncCamera    `json:"camera"`
	Audio     *jsoncAudio     `json:"audio"`
	Capture   *jsoncCapture   `json:"capture"`
	Indicator *jsoncIndicator `json:"indicator"`
	Auth      *jsoncAuth      `json:"auth"`
	History   *jsoncHistory   `json:"history"`
	Debug     *jsoncDebug     `json:"debug"`

	ClipboardCmd *string `json:"clipboard_cmd"`
}

type jsoncAPI struct {
	BaseURL     *string `json:"base_url"`
	PredictPath *string `json:"predict_path"`
	HealthPath  *string `json:"health_path"`
	GRPCHealth  *string `json:"grpc_health"`
	SendIDToken *bool   `json:"send_id_token"`
}

type jsoncCamera struct {
	Facing *string `json:"facing"`
	Front  *string `json:"front"`
	Back   *string `json:"back"`
}

type jsoncAudio struct {
	Enable   *bool   `json:"enable"`
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncCapture struct {
	FFmpeg     *string `json:"ffmpeg"`
	MaxSeconds *int    `json:"max_seconds"`
	ClipDir    *string `json:"clip_dir"`
	KeepClips  *bool   `json:"keep_clips"`
}

type jsoncIndicator struct {
	Enable            *bool   `json:"enable"`
	Backend           *string `json:"backend"`
	DesktopAppName    *string `json:"desktop_app_name"`
	SoundEnable       *bool   `json:"sound_enable"`
	SoundStartFile    *string `json:"sound_start_file"`
	SoundStopFile     *string `json:"sound_stop_file"`
	SoundCompleteFile *string `json:"sound_complete_file"`
	SoundCancelFile   *string `json:"sound_cancel_file"`
	ErrorTimeoutMS    *int    `json:"error_timeout_ms"`
}

type jsoncAuth struct {
	TokenFile *string `json:"token_file"`
	Required  *bool   `json:"required"`
}

type jsoncHistory struct {
	Enable *bool   `json:"enable"`
	Path   *string `json:"path"`
}

type jsoncDebug struct {
	Verbose       *bool   `json:"verbose"`
	TraceEndpoint *string `json:"trace_endpoint"`
}

// Parse reads JSONC configuration content over base and validates the result.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}
	if !strings.HasPrefix(trimmed, "{") {
		return Config{}, nil, fmt.Errorf("config must be a JSONC object")
	}

	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if api := payload.API; api != nil {
		setString(&cfg.API.BaseURL, api.BaseURL)
		setString(&cfg.API.PredictPath, api.PredictPath)
		setString(&cfg.API.HealthPath, api.HealthPath)
		setString(&cfg.API.GRPCHealth, api.GRPCHealth)
		setBool(&cfg.API.SendIDToken, api.SendIDToken)
	}

	if camera := payload.Camera; camera != nil {
		if camera.Facing != nil {
			cfg.Camera.Facing = strings.ToLower(strings.TrimSpace(*camera.Facing))
		}
		setString(&cfg.Camera.Front, camera.Front)
		setString(&cfg.Camera.Back, camera.Back)
	}

	if audio := payload.Audio; audio != nil {
		setBool(&cfg.Audio.Enable, audio.Enable)
		setString(&cfg.Audio.Input, audio.Input)
		setString(&cfg.Audio.Fallback, audio.Fallback)
	}

	if capture := payload.Capture; capture != nil {
		setString(&cfg.Capture.FFmpeg, capture.FFmpeg)
		if capture.MaxSeconds != nil {
			cfg.Capture.MaxSeconds = *capture.MaxSeconds
		}
		setString(&cfg.Capture.ClipDir, capture.ClipDir)
		setBool(&cfg.Capture.KeepClips, capture.KeepClips)
	}

	if ind := payload.Indicator; ind != nil {
		setBool(&cfg.Indicator.Enable, ind.Enable)
		setString(&cfg.Indicator.Backend, ind.Backend)
		setString(&cfg.Indicator.DesktopAppName, ind.DesktopAppName)
		setBool(&cfg.Indicator.SoundEnable, ind.SoundEnable)
		setString(&cfg.Indicator.SoundStartFile, ind.SoundStartFile)
		setString(&cfg.Indicator.SoundStopFile, ind.SoundStopFile)
		setString(&cfg.Indicator.SoundCompleteFile, ind.SoundCompleteFile)
		setString(&cfg.Indicator.SoundCancelFile, ind.SoundCancelFile)
		if ind.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *ind.ErrorTimeoutMS
		}
	}

	if payload.ClipboardCmd != nil {
		raw := *payload.ClipboardCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = CommandConfig{Raw: raw, Argv: argv}
	}

	if auth := payload.Auth; auth != nil {
		setString(&cfg.Auth.TokenFile, auth.TokenFile)
		setBool(&cfg.Auth.Required, auth.Required)
	}

	if history := payload.History; history != nil {
		setBool(&cfg.History.Enable, history.Enable)
		setString(&cfg.History.Path, history.Path)
	}

	if debug := payload.Debug; debug != nil {
		setBool(&cfg.Debug.Verbose, debug.Verbose)
		setString(&cfg.Debug.TraceEndpoint, debug.TraceEndpoint)
	}

	return nil
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func setBool(dst *bool, value *bool) {
	if value != nil {
		*dst = *value
	}
}

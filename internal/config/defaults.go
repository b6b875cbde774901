package config

const (
	FacingFront = "front"
	FacingBack  = "back"
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		API: APIConfig{
			BaseURL:     "http://127.0.0.1:3000",
			PredictPath: "/api/sign-to-text/predict",
			HealthPath:  "/",
		},
		Camera: CameraConfig{
			Facing: FacingBack,
			Front:  "/dev/video0",
			Back:   "/dev/video0",
		},
		Audio: AudioConfig{
			Enable:   true,
			Input:    "default",
			Fallback: "default",
		},
		Capture: CaptureConfig{
			FFmpeg:     "ffmpeg",
			MaxSeconds: 15,
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "desktop",
			DesktopAppName: "signa-indicator",
			SoundEnable:    true,
			ErrorTimeoutMS: 4000,
		},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
		Auth: AuthConfig{
			TokenFile: "",
			Required:  true,
		},
		History: HistoryConfig{Enable: true},
		Debug:   DebugConfig{},
	}
}

// Package config resolves, parses, validates, and defaults signa configuration.
package config

// Config is the fully materialized runtime configuration used by signa.
type Config struct {
	API       APIConfig
	Camera    CameraConfig
	Audio     AudioConfig
	Capture   CaptureConfig
	Indicator IndicatorConfig
	Clipboard CommandConfig
	Auth      AuthConfig
	History   HistoryConfig
	Debug     DebugConfig
}

// APIConfig locates the inference backend.
type APIConfig struct {
	BaseURL     string
	PredictPath string
	HealthPath  string
	// GRPCHealth is an optional host:port serving grpc.health.v1.
	GRPCHealth  string
	SendIDToken bool
}

// CameraConfig maps each camera facing to a v4l2 device node.
type CameraConfig struct {
	Facing string
	Front  string
	Back   string
}

// AudioConfig controls preferred and fallback microphone selection.
type AudioConfig struct {
	Enable   bool
	Input    string
	Fallback string
}

// CaptureConfig controls the recorder process and clip storage.
type CaptureConfig struct {
	FFmpeg     string
	MaxSeconds int
	ClipDir    string
	KeepClips  bool
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable            bool
	Backend           string
	DesktopAppName    string
	SoundEnable       bool
	SoundStartFile    string
	SoundStopFile     string
	SoundCompleteFile string
	SoundCancelFile   string
	ErrorTimeoutMS    int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// AuthConfig controls where the Firebase ID token is read from.
type AuthConfig struct {
	TokenFile string
	Required  bool
}

// HistoryConfig controls the local translation history database.
type HistoryConfig struct {
	Enable bool
	Path   string
}

// DebugConfig controls verbose logging and trace export.
type DebugConfig struct {
	Verbose       bool
	TraceEndpoint string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// Package doctor runs runtime readiness diagnostics for config, capture
// tools, devices, auth, and the inference backend.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rbright/signa/internal/audio"
	"github.com/rbright/signa/internal/auth"
	"github.com/rbright/signa/internal/camera"
	"github.com/rbright/signa/internal/config"
	"github.com/rbright/signa/internal/hypr"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
// facing selects which camera node is checked.
func Run(ctx context.Context, cfg config.Loaded, facing camera.Facing) Report {
	checks := []Check{{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	}}

	checks = append(checks, checkBinary(cfg.Config.Capture.FFmpeg, "recorder"))
	checks = append(checks, checkCommand(cfg.Config.Clipboard.Argv, "clipboard_cmd"))
	checks = append(checks, checkCamera(camera.DevicePath(cfg.Config.Camera, facing), facing))
	if cfg.Config.Audio.Enable {
		checks = append(checks, checkAudioSelection(ctx, cfg.Config))
	}
	if cfg.Config.Indicator.Enable && cfg.Config.Indicator.Backend == "hypr" {
		checks = append(checks, checkHyprland(ctx))
	}
	checks = append(checks, checkAuth(auth.NewProvider(cfg.Config.Auth.TokenFile), cfg.Config.Auth.Required))
	checks = append(checks, checkBackend(ctx, cfg.Config.API))
	if strings.TrimSpace(cfg.Config.API.GRPCHealth) != "" {
		checks = append(checks, checkGRPCHealth(ctx, cfg.Config.API.GRPCHealth))
	}

	return Report{Checks: checks}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkCamera validates that the configured node is an openable character device.
func checkCamera(path string, facing camera.Facing) Check {
	name := "camera." + string(facing)
	if path == "" {
		return Check{Name: name, Pass: false, Message: "no device configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	if info.Mode()&os.ModeCharDevice == 0 {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s is not a character device", path)}
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	_ = f.Close()
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("%s is accessible", path)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

func checkHyprland(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	tag, err := hypr.Version(ctx)
	if err != nil {
		return Check{Name: "hyprland", Pass: false, Message: err.Error()}
	}
	return Check{Name: "hyprland", Pass: true, Message: "running " + tag}
}

// checkAuth reports whether a usable ID token is present.
func checkAuth(provider *auth.Provider, required bool) Check {
	session, err := provider.Load()
	if err != nil {
		return Check{Name: "auth", Pass: false, Message: err.Error()}
	}
	if session.User == nil {
		if !required {
			return Check{Name: "auth", Pass: true, Message: "no token (auth not required)"}
		}
		return Check{Name: "auth", Pass: false, Message: auth.ErrSignInRequired.Error()}
	}

	message := fmt.Sprintf("signed in as %s", session.User.ID)
	if session.User.Email != "" {
		message = fmt.Sprintf("signed in as %s <%s>", session.User.ID, session.User.Email)
	}
	if !session.User.ExpiresAt.IsZero() {
		message += fmt.Sprintf(", expires %s", session.User.ExpiresAt.Format(time.RFC3339))
	}
	return Check{Name: "auth", Pass: true, Message: message}
}

// checkBackend probes the backend health path over HTTP.
func checkBackend(ctx context.Context, api config.APIConfig) Check {
	url := strings.TrimRight(strings.TrimSpace(api.BaseURL), "/") + api.HealthPath
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Check{Name: "api.health", Pass: false, Message: err.Error()}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Check{Name: "api.health", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 256))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Check{Name: "api.health", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
	}
	return Check{Name: "api.health", Pass: true, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
}

// checkGRPCHealth queries grpc.health.v1 on addr.
func checkGRPCHealth(ctx context.Context, addr string) Check {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return Check{Name: "api.grpc_health", Pass: false, Message: fmt.Sprintf("dial %s: %v", addr, err)}
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := waitForReady(ctx, conn); err != nil {
		return Check{Name: "api.grpc_health", Pass: false, Message: fmt.Sprintf("connect %s: %v", addr, err)}
	}
	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return Check{Name: "api.grpc_health", Pass: false, Message: fmt.Sprintf("health check %s: %v", addr, err)}
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		return Check{Name: "api.grpc_health", Pass: false, Message: fmt.Sprintf("%s reports %s", addr, resp.GetStatus())}
	}
	return Check{Name: "api.grpc_health", Pass: true, Message: fmt.Sprintf("%s is SERVING", addr)}
}

// waitForReady blocks until conn is Ready, shut down, or ctx ends.
func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	conn.Connect()
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("connection shut down")
		}
		if !conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("still %s: %w", strings.ToLower(state.String()), ctx.Err())
		}
	}
}

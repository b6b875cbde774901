package doctor

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rbright/signa/internal/auth"
	"github.com/rbright/signa/internal/camera"
	"github.com/rbright/signa/internal/config"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "clipboard_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinary(t *testing.T) {
	found := checkBinary("sh", "shell available")
	require.True(t, found.Pass)
	require.Contains(t, found.Message, "shell available")

	missing := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, missing.Pass)
	require.Contains(t, missing.Message, "binary not found")
}

func TestCheckCommandUsesBinaryFromPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fake-copy"), []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkCommand([]string{"fake-copy", "--trim-newline"}, "clipboard_cmd")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "clipboard_cmd command is available")
}

func TestCheckCamera(t *testing.T) {
	require.False(t, checkCamera("", camera.Back).Pass)

	missing := checkCamera(filepath.Join(t.TempDir(), "video9"), camera.Front)
	require.False(t, missing.Pass)
	require.Equal(t, "camera.front", missing.Name)

	regular := filepath.Join(t.TempDir(), "video0")
	require.NoError(t, os.WriteFile(regular, nil, 0o600))
	notDevice := checkCamera(regular, camera.Back)
	require.False(t, notDevice.Pass)
	require.Contains(t, notDevice.Message, "not a character device")
}

func TestCheckBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	ok := checkBackend(context.Background(), config.APIConfig{BaseURL: server.URL + "/", HealthPath: "/healthz"})
	require.True(t, ok.Pass)
	require.Contains(t, ok.Message, "HTTP 200")

	down := checkBackend(context.Background(), config.APIConfig{BaseURL: server.URL, HealthPath: "/"})
	require.False(t, down.Pass)
	require.Contains(t, down.Message, "HTTP 503")

	unreachable := checkBackend(context.Background(), config.APIConfig{BaseURL: "http://127.0.0.1:1", HealthPath: "/"})
	require.False(t, unreachable.Pass)
	require.Contains(t, unreachable.Message, "request failed")
}

func TestCheckAuth(t *testing.T) {
	t.Setenv("SIGNA_ID_TOKEN", "")

	optional := checkAuth(auth.NewProvider(""), false)
	require.True(t, optional.Pass)
	require.Contains(t, optional.Message, "not required")

	required := checkAuth(auth.NewProvider(""), true)
	require.False(t, required.Pass)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "uid-1",
		"email":   "signer@example.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test"))
	require.NoError(t, err)
	t.Setenv("SIGNA_ID_TOKEN", token)

	signedIn := checkAuth(auth.NewProvider(""), true)
	require.True(t, signedIn.Pass)
	require.Contains(t, signedIn.Message, "uid-1 <signer@example.com>")
}

func TestCheckHyprlandUsesHyprctl(t *testing.T) {
	dir := t.TempDir()
	script := "#!/usr/bin/env bash\nset -euo pipefail\necho '{\"tag\":\"v0.45.2\"}'\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hyprctl"), []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkHyprland(context.Background())
	require.True(t, check.Pass)
	require.Equal(t, "running v0.45.2", check.Message)
}

func TestCheckAudioSelectionFailureWithInvalidPulseServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkAudioSelection(context.Background(), config.Default())
	require.False(t, check.Pass)
	require.Equal(t, "audio.device", check.Name)
}

func TestCheckGRPCHealth(t *testing.T) {
	addr, setStatus := startHealthServer(t)

	serving := checkGRPCHealth(context.Background(), addr)
	require.True(t, serving.Pass, serving.Message)

	setStatus(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	notServing := checkGRPCHealth(context.Background(), addr)
	require.False(t, notServing.Pass)
	require.Contains(t, notServing.Message, "NOT_SERVING")
}

func TestCheckGRPCHealthUnreachable(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	check := checkGRPCHealth(context.Background(), addr)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "connect "+addr)
}

func TestRunSkipsOptionalChecks(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("SIGNA_ID_TOKEN", "")

	cfg := config.Default()
	cfg.Audio.Enable = false
	cfg.Indicator.Backend = "desktop"
	cfg.API.BaseURL = "http://127.0.0.1:1"
	cfg.Auth.Required = false

	report := Run(context.Background(), config.Loaded{Path: "/tmp/config.jsonc", Config: cfg}, camera.Back)
	names := make([]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		names = append(names, check.Name)
	}
	require.Contains(t, names, "config")
	require.Contains(t, names, "camera.back")
	require.Contains(t, names, "api.health")
	require.NotContains(t, names, "audio.device")
	require.NotContains(t, names, "hyprland")
	require.NotContains(t, names, "api.grpc_health")
	require.False(t, report.OK())
}

func startHealthServer(t *testing.T) (string, func(grpc_health_v1.HealthCheckResponse_ServingStatus)) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(server, healthServer)

	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	return listener.Addr().String(), func(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
		healthServer.SetServingStatus("", status)
	}
}

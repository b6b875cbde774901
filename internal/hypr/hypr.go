// Package hypr wraps the hyprctl calls signa uses for on-screen notifications.
package hypr

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultColor is used when Notify receives no color.
const DefaultColor = "rgb(89b4fa)"

// Notify shows a Hyprland notification.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = DefaultColor
	}
	_, err := run(ctx, "--quiet", "dispatch", "notify",
		strconv.Itoa(icon), strconv.Itoa(timeoutMS), color, text)
	return err
}

// DismissNotify dismisses active Hyprland notifications.
func DismissNotify(ctx context.Context) error {
	_, err := run(ctx, "--quiet", "dispatch", "dismissnotify")
	return err
}

// Version reports the running compositor tag, e.g. "v0.45.2".
func Version(ctx context.Context) (string, error) {
	out, err := run(ctx, "-j", "version")
	if err != nil {
		return "", err
	}
	var payload struct {
		Tag string `json:"tag"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return "", fmt.Errorf("decode hyprctl version json: %w", err)
	}
	tag := strings.TrimSpace(payload.Tag)
	if tag == "" {
		return "", fmt.Errorf("hyprctl version returned empty tag")
	}
	return tag, nil
}

func run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "hyprctl", args...).CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return nil, fmt.Errorf("hyprctl %v failed: %w", args, err)
		}
		return nil, fmt.Errorf("hyprctl %v failed: %w (%s)", args, err, trimmed)
	}
	return out, nil
}

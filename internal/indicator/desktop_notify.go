package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	notificationsDest = "org.freedesktop.Notifications"
	notificationsPath = "/org/freedesktop/Notifications"
)

// Freedesktop urgency levels carried in the "urgency" hint.
const (
	urgencyNormal   byte = 1
	urgencyCritical byte = 2
)

// desktopNotification is one Notify call. ReplaceID 0 opens a new bubble.
type desktopNotification struct {
	AppName   string
	ReplaceID uint32
	Summary   string
	Urgency   byte
	TimeoutMS int
}

// desktopNotify sends n over the session bus via busctl and returns the
// notification ID assigned by the server.
func desktopNotify(ctx context.Context, n desktopNotification) (uint32, error) {
	out, err := busctl(ctx, "Notify", "susssasa{sv}i",
		n.AppName,
		strconv.FormatUint(uint64(n.ReplaceID), 10),
		"", // icon
		n.Summary,
		"", // body
		"0",
		"1", "urgency", "y", strconv.Itoa(int(n.Urgency)),
		strconv.Itoa(n.TimeoutMS),
	)
	if err != nil {
		return 0, fmt.Errorf("desktop notify failed: %w", err)
	}

	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "u" {
		return 0, fmt.Errorf("desktop notify invalid response: %q", out)
	}
	id, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("desktop notify parse id %q: %w", fields[1], err)
	}
	return uint32(id), nil
}

// desktopDismiss closes the notification with id.
func desktopDismiss(ctx context.Context, id uint32) error {
	if _, err := busctl(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10)); err != nil {
		return fmt.Errorf("desktop dismiss failed: %w", err)
	}
	return nil
}

func busctl(ctx context.Context, method string, signature string, args ...string) (string, error) {
	argv := append([]string{"--user", "call", notificationsDest, notificationsPath, notificationsDest, method, signature}, args...)
	out, err := exec.CommandContext(ctx, "busctl", argv...).CombinedOutput()
	trimmed := strings.TrimSpace(string(out))
	if err != nil {
		if trimmed == "" {
			return "", err
		}
		return "", fmt.Errorf("%w (%s)", err, trimmed)
	}
	return trimmed, nil
}

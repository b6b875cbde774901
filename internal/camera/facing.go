// Package camera selects v4l2 cameras and records sign clips with ffmpeg.
package camera

import (
	"fmt"
	"strings"

	"github.com/rbright/signa/internal/config"
)

// Facing names which physical camera records the signer.
type Facing string

const (
	Front Facing = config.FacingFront
	Back  Facing = config.FacingBack
)

// ParseFacing accepts "front" or "back" in any case.
func ParseFacing(raw string) (Facing, error) {
	switch f := Facing(strings.ToLower(strings.TrimSpace(raw))); f {
	case Front, Back:
		return f, nil
	default:
		return "", fmt.Errorf("unknown camera facing %q", raw)
	}
}

// Toggle returns the opposite facing. Anything that is not Front flips to Front.
func (f Facing) Toggle() Facing {
	if f == Front {
		return Back
	}
	return Front
}

// DevicePath returns the device node configured for f.
func DevicePath(cfg config.CameraConfig, f Facing) string {
	if f == Front {
		return strings.TrimSpace(cfg.Front)
	}
	return strings.TrimSpace(cfg.Back)
}

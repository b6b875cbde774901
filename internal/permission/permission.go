// Package permission resolves camera and microphone access before recording.
package permission

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rbright/signa/internal/audio"
)

// ErrPermissionDenied reports that the camera handle did not resolve.
var ErrPermissionDenied = errors.New("waiting for camera/microphone permissions")

// Grants holds the two independent capability results.
type Grants struct {
	Camera     bool
	Microphone bool

	CameraErr     error
	MicrophoneErr error
}

// Handle is the resolved capture target. A zero Handle has no device.
type Handle struct {
	Device     string
	Microphone string
	Warning    string
}

// MicResolver picks and verifies a microphone source.
type MicResolver func(ctx context.Context) (audio.Selection, error)

// Gate requests capabilities once per session. There is no retry.
type Gate struct {
	device string
	mic    MicResolver
}

// NewGate builds a gate for the camera node device. A nil mic disables audio.
func NewGate(device string, mic MicResolver) *Gate {
	return &Gate{device: device, mic: mic}
}

// PulseResolver resolves input/fallback through PulseAudio and probes the result.
func PulseResolver(input string, fallback string) MicResolver {
	return func(ctx context.Context) (audio.Selection, error) {
		selection, err := audio.SelectDevice(ctx, input, fallback)
		if err != nil {
			return audio.Selection{}, err
		}
		if err := audio.Probe(ctx, selection.Device); err != nil {
			return audio.Selection{}, err
		}
		return selection, nil
	}
}

// Request checks both capabilities. It returns ErrPermissionDenied with the
// grants when the camera is unavailable; a missing microphone alone records
// video without sound.
func (g *Gate) Request(ctx context.Context) (Grants, Handle, error) {
	var (
		grants Grants
		handle Handle
	)

	if err := openDevice(g.device); err != nil {
		grants.CameraErr = err
	} else {
		grants.Camera = true
		handle.Device = g.device
	}

	if g.mic != nil {
		selection, err := g.mic(ctx)
		if err != nil {
			grants.MicrophoneErr = err
		} else {
			grants.Microphone = true
			handle.Microphone = selection.Device.ID
			handle.Warning = selection.Warning
		}
	}

	if !grants.Camera {
		return grants, Handle{}, fmt.Errorf("%w: %v", ErrPermissionDenied, grants.CameraErr)
	}
	return grants, handle, nil
}

func openDevice(path string) error {
	if path == "" {
		return errors.New("no camera device configured")
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return f.Close()
}

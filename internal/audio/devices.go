// Package audio discovers PulseAudio microphones and verifies they deliver samples.
package audio

import (
	"context"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Device describes one Pulse input source surfaced to signa.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

func connect() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("signa"),
		pulse.ClientApplicationIconName("camera-video"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// ListDevices returns Pulse input sources, skipping monitor sources of sinks.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := connect()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	defaultSource, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}

	var infos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &infos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return devicesFromInfos(infos, defaultSource.ID()), nil
}

func devicesFromInfos(infos pulseproto.GetSourceInfoListReply, defaultID string) []Device {
	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		if info == nil || isMonitor(info) {
			continue
		}
		devices = append(devices, Device{
			ID:          info.SourceName,
			Description: info.Device,
			State:       sourceStateString(info.State),
			Available:   sourceAvailable(info),
			Muted:       info.Mute,
			Default:     info.SourceName == defaultID,
		})
	}
	return devices
}

// isMonitor reports sink monitors, which record playback rather than a signer.
func isMonitor(info *pulseproto.GetSourceInfoReply) bool {
	return strings.HasSuffix(info.SourceName, ".monitor")
}

func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

func sourceAvailable(info *pulseproto.GetSourceInfoReply) bool {
	if info == nil {
		return false
	}
	if len(info.Ports) == 0 {
		return true
	}
	for _, port := range info.Ports {
		if port.Name != info.ActivePortName {
			continue
		}
		// PulseAudio values: unknown=0, no=1, yes=2.
		return port.Available == 0 || port.Available == 2
	}
	return true
}

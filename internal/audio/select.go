package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoMicrophone reports that no input source could be resolved.
var ErrNoMicrophone = errors.New("no usable microphone")

// Selection is the microphone the recorder should use.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// SelectDevice resolves audio.input and audio.fallback against live sources.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return choose(devices, input, fallback)
}

// choose prefers input, then fallback, where "default" or "" means the
// server default source. A match is a case-insensitive substring of the
// source id or description.
func choose(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, fmt.Errorf("%w: no input sources", ErrNoMicrophone)
	}

	primary, err := lookup(devices, input)
	if err != nil {
		return Selection{}, fmt.Errorf("audio.input: %w", err)
	}
	if usable(primary) {
		return Selection{Device: primary}, nil
	}

	reason := "unavailable"
	if primary.Muted {
		reason = "muted"
	}

	alt, err := lookup(devices, fallback)
	if err != nil {
		return Selection{}, fmt.Errorf("audio.input %q is %s and audio.fallback: %w", primary.ID, reason, err)
	}
	switch {
	case !alt.Available:
		return Selection{}, fmt.Errorf("%w: fallback %q is not available", ErrNoMicrophone, alt.ID)
	case alt.Muted:
		return Selection{}, fmt.Errorf("%w: fallback %q is muted", ErrNoMicrophone, alt.ID)
	}

	return Selection{
		Device:   alt,
		Warning:  fmt.Sprintf("audio.input %q is %s; using %q", primary.ID, reason, alt.ID),
		Fallback: alt.ID != primary.ID,
	}, nil
}

func lookup(devices []Device, term string) (Device, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || term == "default" {
		for _, dev := range devices {
			if dev.Default {
				return dev, nil
			}
		}
		return Device{}, fmt.Errorf("%w: default source is unavailable", ErrNoMicrophone)
	}
	for _, dev := range devices {
		if matches(dev, term) {
			return dev, nil
		}
	}
	return Device{}, fmt.Errorf("%w: %q did not match any source", ErrNoMicrophone, term)
}

func matches(dev Device, term string) bool {
	return strings.Contains(strings.ToLower(dev.ID), term) ||
		strings.Contains(strings.ToLower(dev.Description), term)
}

func usable(dev Device) bool {
	return dev.Available && !dev.Muted
}

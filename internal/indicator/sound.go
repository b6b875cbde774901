package indicator

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jfreymuth/pulse"

	"github.com/rbright/signa/internal/config"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueCancel
)

const (
	cueSampleRate = 16000
	cueGap        = 22 * time.Millisecond
)

type toneSpec struct {
	frequencyHz float64
	duration    time.Duration
	volume      float64
}

// cueTones describes each built-in cue. Rising pairs mean start or success,
// a single low tone means the camera stopped, a falling pair means cancel.
var cueTones = map[cueKind][]toneSpec{
	cueStart:    {{880, 70 * time.Millisecond, 0.18}, {1175, 70 * time.Millisecond, 0.18}},
	cueStop:     {{620, 120 * time.Millisecond, 0.18}},
	cueComplete: {{740, 65 * time.Millisecond, 0.18}, {988, 65 * time.Millisecond, 0.18}, {1319, 90 * time.Millisecond, 0.16}},
	cueCancel:   {{480, 75 * time.Millisecond, 0.18}, {360, 90 * time.Millisecond, 0.18}},
}

var cuePCM = func() map[cueKind][]int16 {
	out := make(map[cueKind][]int16, len(cueTones))
	for kind, tones := range cueTones {
		out[kind] = synthesizeCue(tones)
	}
	return out
}()

// emitCue plays the configured cue file, falling back to the built-in tone.
func emitCue(kind cueKind, cfg config.IndicatorConfig) error {
	if path := cueFile(kind, cfg); path != "" {
		if err := playCueFile(path); err == nil {
			return nil
		}
	}
	samples := cuePCM[kind]
	if len(samples) == 0 {
		return nil
	}
	return playSynthCue(samples)
}

func cueFile(kind cueKind, cfg config.IndicatorConfig) string {
	var raw string
	switch kind {
	case cueStart:
		raw = cfg.SoundStartFile
	case cueStop:
		raw = cfg.SoundStopFile
	case cueComplete:
		raw = cfg.SoundCompleteFile
	case cueCancel:
		raw = cfg.SoundCancelFile
	}
	raw = strings.TrimSpace(raw)
	if raw == "~" || strings.HasPrefix(raw, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			raw = filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(raw, "~"), "/"))
		}
	}
	return raw
}

func playCueFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat cue file %q: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()

	if err := exec.CommandContext(ctx, "pw-play", "--media-role", "Notification", path).Run(); err != nil {
		return fmt.Errorf("play cue file %q: %w", path, err)
	}
	return nil
}

func playSynthCue(samples []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("signa"),
		pulse.ClientApplicationIconName("camera-video"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if cursor >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("signa indicator cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

func synthesizeCue(tones []toneSpec) []int16 {
	gap := make([]int16, samplesForDuration(cueGap))
	var pcm []int16
	for i, tone := range tones {
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, synthesizeTone(tone)...)
	}
	return pcm
}

// synthesizeTone renders a sine with a short linear attack and release.
func synthesizeTone(spec toneSpec) []int16 {
	n := samplesForDuration(spec.duration)
	if n <= 0 || spec.frequencyHz <= 0 || spec.volume <= 0 {
		return nil
	}

	ramp := min(n/10, cueSampleRate/200)
	ramp = max(ramp, 1)

	pcm := make([]int16, n)
	for i := range pcm {
		envelope := 1.0
		if i < ramp {
			envelope = float64(i) / float64(ramp)
		}
		if tail := n - i - 1; tail < ramp {
			envelope = math.Min(envelope, float64(tail)/float64(ramp))
		}
		t := float64(i) / cueSampleRate
		pcm[i] = int16(math.Round(math.Sin(2*math.Pi*spec.frequencyHz*t) * spec.volume * envelope * 32767))
	}
	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}

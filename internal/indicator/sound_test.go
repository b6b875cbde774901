package indicator

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rbright/signa/internal/config"
	"github.com/stretchr/testify/require"
)

func TestCuePCMPresentForEveryKind(t *testing.T) {
	for _, kind := range []cueKind{cueStart, cueStop, cueComplete, cueCancel} {
		require.NotEmpty(t, cuePCM[kind], "cue %d", kind)
	}
	require.Empty(t, cuePCM[cueKind(99)])
}

func TestSynthesizeCueInsertsGaps(t *testing.T) {
	tone := toneSpec{frequencyHz: 440, duration: 50 * time.Millisecond, volume: 0.2}
	got := synthesizeCue([]toneSpec{tone, tone})
	require.Len(t, got, 2*samplesForDuration(50*time.Millisecond)+samplesForDuration(cueGap))
}

func TestSynthesizeToneDurationAndEnvelope(t *testing.T) {
	got := synthesizeTone(toneSpec{frequencyHz: 440, duration: 100 * time.Millisecond, volume: 0.2})
	require.Len(t, got, samplesForDuration(100*time.Millisecond))
	require.Zero(t, got[0])
	require.Zero(t, got[len(got)-1])
}

func TestSynthesizeToneInvalidSpecReturnsEmpty(t *testing.T) {
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 0, duration: 100 * time.Millisecond, volume: 0.2}))
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 440, duration: 0, volume: 0.2}))
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 440, duration: 100 * time.Millisecond, volume: 0}))
}

func TestCueFileExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := config.IndicatorConfig{SoundStartFile: "~/cues/start.wav", SoundCancelFile: " /tmp/cancel.wav "}
	require.Equal(t, filepath.Join(home, "cues", "start.wav"), cueFile(cueStart, cfg))
	require.Equal(t, "/tmp/cancel.wav", cueFile(cueCancel, cfg))
	require.Empty(t, cueFile(cueStop, cfg))
}

func TestPlayCueFileMissing(t *testing.T) {
	require.Error(t, playCueFile(filepath.Join(t.TempDir(), "missing.wav")))
}

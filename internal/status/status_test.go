package status

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) sink(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func TestMessagesAreFixed(t *testing.T) {
	require.Equal(t, 3*time.Second, Interval)
	require.Equal(t, [5]string{
		"Uploading video...",
		"Converting video to frames...",
		"Detecting gestures...",
		"Structuring sentence...",
		"Almost there...",
	}, Messages)
}

func TestStartEmitsFirstMessageImmediately(t *testing.T) {
	rec := &recorder{}
	stop := New().Start(rec.sink)
	defer stop()

	require.Equal(t, []string{"Uploading video..."}, rec.snapshot())
}

func TestMarqueeCyclesInOrderAndWraps(t *testing.T) {
	rec := &recorder{}
	m := &Marquee{interval: 5 * time.Millisecond}
	stop := m.Start(rec.sink)

	require.Eventually(t, func() bool { return len(rec.snapshot()) >= 7 }, 2*time.Second, time.Millisecond)
	stop()

	got := rec.snapshot()
	for i, msg := range got {
		require.Equal(t, Messages[i%len(Messages)], msg)
	}
}

func TestStopHaltsEmissionAndIsIdempotent(t *testing.T) {
	rec := &recorder{}
	m := &Marquee{interval: 2 * time.Millisecond}
	stop := m.Start(rec.sink)

	require.Eventually(t, func() bool { return len(rec.snapshot()) >= 2 }, 2*time.Second, time.Millisecond)
	stop()
	stop()

	settled := len(rec.snapshot())
	time.Sleep(20 * time.Millisecond)
	require.Len(t, rec.snapshot(), settled)
}

// Package status cycles progress text while an upload is outstanding.
package status

import (
	"sync"
	"time"
)

// Interval is the fixed time between messages.
const Interval = 3 * time.Second

// Messages are shown in this order, wrapping after the last.
var Messages = [...]string{
	"Uploading video...",
	"Converting video to frames...",
	"Detecting gestures...",
	"Structuring sentence...",
	"Almost there...",
}

// Sink receives each status message.
type Sink func(string)

// Marquee drives one Sink on a ticker.
type Marquee struct {
	interval time.Duration
}

// New returns a Marquee using Interval.
func New() *Marquee {
	return &Marquee{interval: Interval}
}

// Start emits Messages[0] synchronously, then advances every interval.
// The returned stop is idempotent; once it returns, sink is not called again.
func (m *Marquee) Start(sink Sink) (stop func()) {
	var (
		mu      sync.Mutex
		stopped bool
	)
	emit := func(msg string) bool {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return false
		}
		sink(msg)
		return true
	}

	emit(Messages[0])

	ticker := time.NewTicker(m.interval)
	quit := make(chan struct{})
	go func() {
		defer ticker.Stop()
		index := 0
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				index = (index + 1) % len(Messages)
				if !emit(Messages[index]) {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			stopped = true
			mu.Unlock()
			close(quit)
		})
	}
}

package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const probeTimeout = 1500 * time.Millisecond

// Probe opens a short record stream on dev and waits for the first samples.
// A source that connects but never delivers audio is reported as an error.
func Probe(ctx context.Context, dev Device) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	source, err := client.SourceByID(dev.ID)
	if err != nil {
		return fmt.Errorf("resolve source %q: %w", dev.ID, err)
	}

	sink := newFirstSamples()
	stream, err := client.NewRecord(
		pulse.NewWriter(sink, pulseproto.FormatInt16LE),
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(16000),
		pulse.RecordMediaName("signa microphone check"),
	)
	if err != nil {
		return fmt.Errorf("open record stream on %q: %w", dev.ID, err)
	}
	defer stream.Close()

	stream.Start()
	defer stream.Stop()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return sink.wait(ctx, dev.ID)
}

// firstSamples closes ready on the first non-empty write and then reports EOF
// so pulse stops feeding it.
type firstSamples struct {
	once  sync.Once
	ready chan struct{}
}

func newFirstSamples() *firstSamples {
	return &firstSamples{ready: make(chan struct{})}
}

func (f *firstSamples) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	f.once.Do(func() { close(f.ready) })
	return 0, io.EOF
}

func (f *firstSamples) wait(ctx context.Context, id string) error {
	select {
	case <-f.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %q delivered no samples: %v", ErrNoMicrophone, id, ctx.Err())
	}
}

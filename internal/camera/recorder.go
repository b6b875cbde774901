package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNoDevice is returned when no camera handle resolved for the session.
	ErrNoDevice = errors.New("no camera device")
	// ErrRecording wraps recorder process failures and missing output.
	ErrRecording = errors.New("recording error")
	// ErrAborted is delivered on Finished after Abort.
	ErrAborted = errors.New("recording aborted")
	// ErrNotRecording is returned by RequestStop before Start.
	ErrNotRecording = errors.New("not recording")
)

const (
	stopGrace   = 5 * time.Second
	stderrLimit = 512
)

// Options configures one Recorder.
type Options struct {
	FFmpeg     string
	Device     string
	Microphone string
	Dir        string
	Facing     Facing
	Logger     *slog.Logger
}

// Session is the observable recording state.
type Session struct {
	Active   bool
	FilePath string
	Facing   Facing
}

// Clip is a finished recording on disk.
type Clip struct {
	Path       string
	Facing     Facing
	Size       int64
	StartedAt  time.Time
	FinishedAt time.Time
}

// Outcome is delivered exactly once on Finished.
type Outcome struct {
	Clip Clip
	Err  error
}

// Recorder drives one ffmpeg recording. It is single use.
type Recorder struct {
	opts Options

	mu        sync.Mutex
	started   bool
	stopping  bool
	aborted   bool
	active    bool
	path      string
	startedAt time.Time
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stderr    bytes.Buffer
	grace     *time.Timer

	finished chan Outcome
}

// NewRecorder constructs an idle recorder.
func NewRecorder(opts Options) *Recorder {
	if strings.TrimSpace(opts.FFmpeg) == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if opts.Facing == "" {
		opts.Facing = Back
	}
	return &Recorder{opts: opts, finished: make(chan Outcome, 1)}
}

// Start launches ffmpeg writing a fresh mp4 into the clip directory.
func (r *Recorder) Start(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return errors.New("recorder already started")
	}
	if strings.TrimSpace(r.opts.Device) == "" {
		return ErrNoDevice
	}
	if err := os.MkdirAll(r.opts.Dir, 0o700); err != nil {
		return fmt.Errorf("create clip dir: %w", err)
	}

	path := filepath.Join(r.opts.Dir, uuid.NewString()+".mp4")
	cmd := exec.Command(r.opts.FFmpeg, ffmpegArgs(r.opts.Device, r.opts.Microphone, path)...)
	cmd.Stderr = &r.stderr
	cmd.WaitDelay = time.Second
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open recorder stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("%w: start %s: %v", ErrRecording, r.opts.FFmpeg, err)
	}

	r.started = true
	r.active = true
	r.path = path
	r.startedAt = time.Now()
	r.cmd = cmd
	r.stdin = stdin
	r.logDebug("recorder started", "path", path, "device", r.opts.Device, "microphone", r.opts.Microphone)

	go r.wait()
	return nil
}

// RequestStop asks ffmpeg to finalize the clip. The clip arrives on Finished.
func (r *Recorder) RequestStop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return ErrNotRecording
	}
	if r.stopping {
		return nil
	}
	r.stopping = true

	_, err := io.WriteString(r.stdin, "q")
	_ = r.stdin.Close()
	cmd := r.cmd
	r.grace = time.AfterFunc(stopGrace, func() { _ = cmd.Process.Kill() })
	if err != nil {
		return fmt.Errorf("signal recorder stop: %w", err)
	}
	return nil
}

// Abort kills ffmpeg and discards any partial clip.
func (r *Recorder) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active || r.aborted {
		return
	}
	r.aborted = true
	_ = r.stdin.Close()
	_ = r.cmd.Process.Kill()
}

// Finished delivers the single recording outcome.
func (r *Recorder) Finished() <-chan Outcome {
	return r.finished
}

// Session reports the current recording state.
func (r *Recorder) Session() Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Session{Active: r.active, FilePath: r.path, Facing: r.opts.Facing}
}

func (r *Recorder) wait() {
	waitErr := r.cmd.Wait()

	r.mu.Lock()
	if r.grace != nil {
		r.grace.Stop()
	}
	r.active = false
	aborted := r.aborted
	path := r.path
	stderr := tail(r.stderr.String(), stderrLimit)
	clip := Clip{Path: path, Facing: r.opts.Facing, StartedAt: r.startedAt, FinishedAt: time.Now()}
	r.mu.Unlock()

	outcome := Outcome{Clip: clip}
	switch {
	case aborted:
		_ = os.Remove(path)
		outcome = Outcome{Err: ErrAborted}
	case waitErr != nil:
		_ = os.Remove(path)
		outcome = Outcome{Err: recorderError(waitErr, stderr)}
	default:
		info, err := os.Stat(path)
		if err != nil || info.Size() == 0 {
			_ = os.Remove(path)
			outcome = Outcome{Err: fmt.Errorf("%w: recorder produced no output", ErrRecording)}
			break
		}
		outcome.Clip.Size = info.Size()
	}

	r.logDebug("recorder finished", "path", path, "error", errString(outcome.Err))
	r.finished <- outcome
	close(r.finished)
}

func ffmpegArgs(device string, microphone string, output string) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "v4l2", "-i", device,
	}
	if microphone != "" {
		args = append(args, "-f", "pulse", "-i", microphone, "-c:a", "aac")
	}
	return append(args,
		"-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-y", output,
	)
}

func recorderError(err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("%w: %v", ErrRecording, err)
	}
	return fmt.Errorf("%w: %v (%s)", ErrRecording, err, stderr)
}

func tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (r *Recorder) logDebug(msg string, args ...any) {
	if r.opts.Logger == nil {
		return
	}
	r.opts.Logger.Debug(msg, args...)
}

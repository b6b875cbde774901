// Package session coordinates the capture, upload, and routing lifecycle of
// one owner process.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/rbright/signa/internal/camera"
	"github.com/rbright/signa/internal/fsm"
	"github.com/rbright/signa/internal/ipc"
	"github.com/rbright/signa/internal/permission"
	"github.com/rbright/signa/internal/router"
	"github.com/rbright/signa/internal/status"
	"github.com/rbright/signa/internal/upload"
)

type action int

const (
	actionStop action = iota + 1
	actionCancel
)

const hideTimeout = 800 * time.Millisecond

// Result is the complete lifecycle output returned by one Run invocation.
type Result struct {
	State       fsm.State
	Outcome     router.Outcome
	Translation upload.Translation
	Grants      permission.Grants
	Facing      camera.Facing
	ClipPath    string
	Cancelled   bool
	Err         error
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Kind classifies Err.
func (r Result) Kind() Kind {
	return Classify(r.Err)
}

// Deps wires a Controller. Gate, NewRecorder, Begin, and Router are required
// for Run; RunUpload needs only Begin and Router.
type Deps struct {
	Gate        Gate
	NewRecorder RecorderFactory
	Begin       BeginFunc
	Router      *router.Router
	Indicator   Indicator
	Status      StatusPresenter

	Facing     camera.Facing
	MaxSeconds int
	KeepClips  bool
}

// Controller orchestrates session state transitions and side effects.
type Controller struct {
	logger *slog.Logger
	deps   Deps

	mu    sync.RWMutex
	state fsm.State

	enqueueMu sync.Mutex
	actions   chan action
}

// NewController constructs a session controller with safe default fallbacks.
func NewController(logger *slog.Logger, deps Deps) *Controller {
	if deps.Indicator == nil {
		deps.Indicator = noopIndicator{}
	}
	if deps.Status == nil {
		deps.Status = status.New()
	}
	if deps.Facing == "" {
		deps.Facing = camera.Back
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Controller{
		logger:  logger,
		deps:    deps,
		state:   fsm.StateIdle,
		actions: make(chan action, 1),
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Run executes one owner lifecycle: gate, record, upload, route.
// Cancelling ctx unmounts the session; its outcome is then discarded.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{StartedAt: time.Now(), Facing: c.deps.Facing}
	stopUnmount := context.AfterFunc(ctx, c.deps.Router.Unmount)
	defer stopUnmount()

	grants, handle, err := c.deps.Gate.Request(ctx)
	result.Grants = grants
	if err != nil {
		c.logger.Warn("capture permissions unavailable",
			"camera", grants.Camera,
			"microphone", grants.Microphone,
			"error", err.Error(),
		)
		return c.finish(result, err)
	}
	if handle.Warning != "" {
		c.logger.Warn("microphone selection", "warning", handle.Warning)
	}

	if err := c.transition(fsm.EventStart); err != nil {
		return c.finish(result, err)
	}

	rec := c.deps.NewRecorder(handle, c.deps.Facing)
	if err := rec.Start(ctx); err != nil {
		c.toErrorAndReset()
		result.Outcome = c.deps.Router.StartFailed(ctx, err)
		return c.finish(result, err)
	}
	if s := rec.Session(); s.Active {
		c.logger.Info("recording started", "file", s.FilePath, "facing", string(s.Facing))
	}
	c.deps.Indicator.ShowRecording(ctx, string(c.deps.Facing), c.deps.MaxSeconds)

	clip, err := c.awaitRecording(ctx, rec)
	switch {
	case errors.Is(err, ErrRecordingCancelled):
		_ = c.transition(fsm.EventCancel)
		c.hide()
		result.Cancelled = true
		return c.finish(result, err)
	case ctx.Err() != nil:
		_ = c.transition(fsm.EventCancel)
		c.hide()
		result.Outcome = router.OutcomeDiscarded
		return c.finish(result, ctx.Err())
	case err != nil:
		c.toErrorAndReset()
		c.hide()
		result.Outcome = c.deps.Router.RecordingFailed(ctx, err)
		return c.finish(result, err)
	}

	if err := c.transition(fsm.EventStop); err != nil {
		c.toErrorAndReset()
		return c.finish(result, err)
	}
	result.ClipPath = clip.Path
	c.logger.Debug("clip recorded", "path", clip.Path, "bytes", clip.Size, "facing", string(clip.Facing))

	return c.uploadAndRoute(ctx, clip.Path, true, result)
}

// RunUpload sends an existing clip and routes the outcome.
func (c *Controller) RunUpload(ctx context.Context, filePath string) Result {
	result := Result{StartedAt: time.Now(), Facing: c.deps.Facing, ClipPath: filePath}
	stopUnmount := context.AfterFunc(ctx, c.deps.Router.Unmount)
	defer stopUnmount()

	if err := c.transition(fsm.EventUpload); err != nil {
		return c.finish(result, err)
	}
	return c.uploadAndRoute(ctx, filePath, false, result)
}

// awaitRecording blocks until the recorder reports completion. A stop
// action only requests the stop; the clip arrives on Finished.
func (c *Controller) awaitRecording(ctx context.Context, rec Recorder) (camera.Clip, error) {
	stopping := false
	for {
		select {
		case <-ctx.Done():
			rec.Abort()
			<-rec.Finished()
			c.deps.Indicator.CueCancel(context.WithoutCancel(ctx))
			return camera.Clip{}, ctx.Err()
		case a := <-c.actions:
			switch a {
			case actionCancel:
				rec.Abort()
				<-rec.Finished()
				c.deps.Indicator.CueCancel(ctx)
				return camera.Clip{}, ErrRecordingCancelled
			case actionStop:
				if stopping {
					continue
				}
				if err := rec.RequestStop(); err != nil && !errors.Is(err, camera.ErrNotRecording) {
					c.logger.Warn("recorder stop request failed", "error", err.Error())
				}
				stopping = true
				c.deps.Indicator.CueStop(ctx)
			}
		case outcome := <-rec.Finished():
			if outcome.Err != nil {
				return camera.Clip{}, outcome.Err
			}
			if !stopping {
				c.logger.Info("recorder finished without a stop request", "path", outcome.Clip.Path)
			}
			return outcome.Clip, nil
		}
	}
}

// uploadAndRoute starts the upload and the status presenter together and
// tears both down through one routine on every exit path. Recorded clips are
// removed afterwards unless KeepClips is set.
func (c *Controller) uploadAndRoute(ctx context.Context, filePath string, recorded bool, result Result) Result {
	pending := c.deps.Begin(ctx, filePath)
	stopStatus := c.deps.Status.Start(func(msg string) {
		c.deps.Indicator.ShowStatus(ctx, msg)
	})

	var once sync.Once
	teardown := func() {
		once.Do(func() {
			stopStatus()
			pending.Cancel()
			c.hide()
		})
	}
	defer teardown()

	translation, err := c.awaitUpload(ctx, pending)
	teardown()
	if recorded {
		c.removeClip(filePath)
	}

	if ctx.Err() != nil {
		c.deps.Router.Unmount()
		err = ctx.Err()
	}

	switch {
	case err == nil:
		_ = c.transition(fsm.EventTranslated)
	case errors.Is(err, upload.ErrCancelled):
		_ = c.transition(fsm.EventCancel)
		result.Cancelled = true
	case ctx.Err() != nil:
		_ = c.transition(fsm.EventCancel)
	default:
		c.toErrorAndReset()
	}

	result.Translation = translation
	result.Outcome = c.deps.Router.Route(ctx, translation, err)
	return c.finish(result, err)
}

func (c *Controller) awaitUpload(ctx context.Context, pending Pending) (upload.Translation, error) {
	for {
		select {
		case <-pending.Done():
			return pending.Result()
		case <-ctx.Done():
			c.deps.Router.Unmount()
			pending.Cancel()
			translation, _ := pending.Result()
			return translation, ctx.Err()
		case a := <-c.actions:
			// A stop queued during the recording phase is stale here.
			if a == actionCancel {
				pending.Cancel()
			}
		}
	}
}

// Handle serves IPC commands for the active owner session.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return c.respond(true, "status", "")
	case ipc.CommandToggle:
		return c.requestStop(ipc.CommandToggle)
	case ipc.CommandStop:
		return c.requestStop(ipc.CommandStop)
	case ipc.CommandCancel:
		return c.requestCancel()
	case ipc.CommandFlip:
		return c.respond(false, "", ErrFlipDuringSession.Error())
	default:
		return c.respond(false, "", fmt.Sprintf("unknown command: %s", req.Command))
	}
}

// requestStop enqueues a stop action when state permits it.
func (c *Controller) requestStop(source string) ipc.Response {
	state := c.State()
	if state == fsm.StateUploading {
		return c.respond(false, "", ErrAlreadyUploading.Error())
	}
	if state != fsm.StateRecording {
		return c.respond(false, "", fmt.Sprintf("cannot %s from state %s", source, state))
	}

	c.enqueueMu.Lock()
	defer c.enqueueMu.Unlock()
	select {
	case c.actions <- actionStop:
		return c.respond(true, "stop requested", "")
	default:
		return c.respond(true, "stop already requested", "")
	}
}

// requestCancel enqueues a cancel action while recording or uploading.
func (c *Controller) requestCancel() ipc.Response {
	state := c.State()
	if state != fsm.StateRecording && state != fsm.StateUploading {
		return c.respond(false, "", fmt.Sprintf("cannot cancel from state %s", state))
	}
	if !c.enqueueCancel() {
		return c.respond(true, "cancel already requested", "")
	}
	return c.respond(true, "cancel requested", "")
}

// enqueueCancel places a cancel in the action slot, replacing a queued stop.
func (c *Controller) enqueueCancel() bool {
	c.enqueueMu.Lock()
	defer c.enqueueMu.Unlock()

	select {
	case c.actions <- actionCancel:
		return true
	default:
	}
	select {
	case queued := <-c.actions:
		if queued == actionCancel {
			c.actions <- actionCancel
			return false
		}
	default:
	}
	c.actions <- actionCancel
	return true
}

func (c *Controller) respond(ok bool, message string, errText string) ipc.Response {
	return ipc.Response{
		OK:      ok,
		State:   string(c.State()),
		Facing:  string(c.deps.Facing),
		Message: message,
		Error:   errText,
	}
}

func (c *Controller) finish(result Result, err error) Result {
	result.State = c.State()
	result.Err = err
	result.FinishedAt = time.Now()
	return result
}

func (c *Controller) hide() {
	ctx, cancel := context.WithTimeout(context.Background(), hideTimeout)
	defer cancel()
	c.deps.Indicator.Hide(ctx)
}

func (c *Controller) removeClip(path string) {
	if c.deps.KeepClips || path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Debug("clip cleanup failed", "path", path, "error", err.Error())
	}
}

// toErrorAndReset transitions to error and back to idle best-effort.
func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}

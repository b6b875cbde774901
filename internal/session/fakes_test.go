package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rbright/signa/internal/camera"
	"github.com/rbright/signa/internal/fsm"
	"github.com/rbright/signa/internal/permission"
	"github.com/rbright/signa/internal/router"
	"github.com/rbright/signa/internal/status"
	"github.com/rbright/signa/internal/upload"
)

type fakeGate struct {
	grants permission.Grants
	handle permission.Handle
	err    error
}

func (f *fakeGate) Request(context.Context) (permission.Grants, permission.Handle, error) {
	return f.grants, f.handle, f.err
}

type fakeRecorder struct {
	startErr error
	clipPath string
	failErr  error

	finished     chan camera.Outcome
	once         sync.Once
	stopCalls    atomic.Int32
	abortCalls   atomic.Int32
	sessionCalls atomic.Int32
	startFacing  camera.Facing
}

func newFakeRecorder(clipPath string) *fakeRecorder {
	return &fakeRecorder{clipPath: clipPath, finished: make(chan camera.Outcome, 1)}
}

func (f *fakeRecorder) Start(context.Context) error {
	return f.startErr
}

func (f *fakeRecorder) RequestStop() error {
	f.stopCalls.Add(1)
	if f.failErr != nil {
		f.deliver(camera.Outcome{Err: f.failErr})
		return nil
	}
	f.deliver(camera.Outcome{Clip: camera.Clip{Path: f.clipPath, Facing: f.startFacing, Size: 1024}})
	return nil
}

func (f *fakeRecorder) Abort() {
	f.abortCalls.Add(1)
	f.deliver(camera.Outcome{Err: camera.ErrAborted})
}

func (f *fakeRecorder) Finished() <-chan camera.Outcome {
	return f.finished
}

func (f *fakeRecorder) Session() camera.Session {
	f.sessionCalls.Add(1)
	return camera.Session{Active: f.startErr == nil, FilePath: f.clipPath, Facing: f.startFacing}
}

func (f *fakeRecorder) deliver(outcome camera.Outcome) {
	f.once.Do(func() {
		f.finished <- outcome
		close(f.finished)
	})
}

type fakePending struct {
	done    chan struct{}
	once    sync.Once
	result  upload.Translation
	err     error
	cancels atomic.Int32
}

func newFakePending() *fakePending {
	return &fakePending{done: make(chan struct{})}
}

func (f *fakePending) Cancel() {
	f.cancels.Add(1)
	f.settle(upload.Translation{}, upload.ErrCancelled)
}

func (f *fakePending) Done() <-chan struct{} {
	return f.done
}

func (f *fakePending) Result() (upload.Translation, error) {
	<-f.done
	return f.result, f.err
}

func (f *fakePending) settle(result upload.Translation, err error) {
	f.once.Do(func() {
		f.result = result
		f.err = err
		close(f.done)
	})
}

type fakeUploader struct {
	pending *fakePending

	mu    sync.Mutex
	paths []string
}

func (f *fakeUploader) Begin(_ context.Context, filePath string) Pending {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, filePath)
	return f.pending
}

func (f *fakeUploader) begun() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

type alert struct {
	title   string
	message string
}

type fakeScreen struct {
	mu          sync.Mutex
	navigations []router.Params
	alerts      []alert
}

func (f *fakeScreen) Navigate(_ context.Context, params router.Params) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigations = append(f.navigations, params)
}

func (f *fakeScreen) Alert(_ context.Context, title string, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert{title: title, message: message})
}

func (f *fakeScreen) snapshot() ([]router.Params, []alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]router.Params(nil), f.navigations...), append([]alert(nil), f.alerts...)
}

type fakeIndicator struct {
	recordings atomic.Int32
	statuses   atomic.Int32
	stopCues   atomic.Int32
	cancelCues atomic.Int32
	hides      atomic.Int32
}

func (f *fakeIndicator) ShowRecording(context.Context, string, int) { f.recordings.Add(1) }
func (f *fakeIndicator) ShowStatus(context.Context, string)         { f.statuses.Add(1) }
func (f *fakeIndicator) CueStop(context.Context)                    { f.stopCues.Add(1) }
func (f *fakeIndicator) CueCancel(context.Context)                  { f.cancelCues.Add(1) }
func (f *fakeIndicator) Hide(context.Context)                       { f.hides.Add(1) }

type fakeStatus struct {
	starts atomic.Int32
	stops  atomic.Int32
}

func (f *fakeStatus) Start(sink status.Sink) func() {
	f.starts.Add(1)
	sink(status.Messages[0])
	var once sync.Once
	return func() { once.Do(func() { f.stops.Add(1) }) }
}

type harness struct {
	ctrl      *Controller
	gate      *fakeGate
	recorder  *fakeRecorder
	uploader  *fakeUploader
	screen    *fakeScreen
	indicator *fakeIndicator
	status    *fakeStatus
	factories atomic.Int32
}

func newHarness(t *testing.T, clipPath string, keepClips bool) *harness {
	t.Helper()

	h := &harness{
		gate:      &fakeGate{grants: permission.Grants{Camera: true, Microphone: true}, handle: permission.Handle{Device: "/dev/video0", Microphone: "mic"}},
		recorder:  newFakeRecorder(clipPath),
		uploader:  &fakeUploader{pending: newFakePending()},
		screen:    &fakeScreen{},
		indicator: &fakeIndicator{},
		status:    &fakeStatus{},
	}
	h.ctrl = NewController(nil, Deps{
		Gate: h.gate,
		NewRecorder: func(_ permission.Handle, facing camera.Facing) Recorder {
			h.factories.Add(1)
			h.recorder.startFacing = facing
			return h.recorder
		},
		Begin:      h.uploader.Begin,
		Router:     router.New(h.screen, h.screen),
		Indicator:  h.indicator,
		Status:     h.status,
		Facing:     camera.Front,
		MaxSeconds: 15,
		KeepClips:  keepClips,
	})
	return h
}

func (h *harness) run(ctx context.Context) <-chan Result {
	resultCh := make(chan Result, 1)
	go func() {
		resultCh <- h.ctrl.Run(ctx)
	}()
	return resultCh
}

func waitForState(t *testing.T, ctrl *Controller, desired fsm.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ctrl.State() == desired {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s (current=%s)", desired, ctrl.State())
}

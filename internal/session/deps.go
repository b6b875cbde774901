package session

import (
	"context"

	"github.com/rbright/signa/internal/camera"
	"github.com/rbright/signa/internal/permission"
	"github.com/rbright/signa/internal/status"
	"github.com/rbright/signa/internal/upload"
)

// Gate resolves capture capabilities once per session.
type Gate interface {
	Request(context.Context) (permission.Grants, permission.Handle, error)
}

// Recorder is the capture surface driven by the controller.
type Recorder interface {
	Start(context.Context) error
	RequestStop() error
	Abort()
	Finished() <-chan camera.Outcome
	Session() camera.Session
}

// RecorderFactory builds a single-use recorder for a resolved handle.
type RecorderFactory func(permission.Handle, camera.Facing) Recorder

// Pending is one outstanding upload.
type Pending interface {
	Cancel()
	Done() <-chan struct{}
	Result() (upload.Translation, error)
}

// BeginFunc starts uploading a clip.
type BeginFunc func(ctx context.Context, filePath string) Pending

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowRecording(ctx context.Context, facing string, maxSeconds int)
	ShowStatus(ctx context.Context, text string)
	CueStop(context.Context)
	CueCancel(context.Context)
	Hide(context.Context)
}

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowRecording(context.Context, string, int) {}
func (noopIndicator) ShowStatus(context.Context, string)         {}
func (noopIndicator) CueStop(context.Context)                    {}
func (noopIndicator) CueCancel(context.Context)                  {}
func (noopIndicator) Hide(context.Context)                       {}

// StatusPresenter cycles progress text until stopped.
type StatusPresenter interface {
	Start(sink status.Sink) (stop func())
}

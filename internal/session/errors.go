package session

import (
	"context"
	"errors"

	"github.com/rbright/signa/internal/camera"
	"github.com/rbright/signa/internal/permission"
	"github.com/rbright/signa/internal/upload"
)

var (
	// ErrAlreadyUploading rejects a second upload cycle for one owner.
	ErrAlreadyUploading = errors.New("already uploading")
	// ErrFlipDuringSession rejects camera flips while an owner is active.
	ErrFlipDuringSession = errors.New("cannot flip camera while recording")
	// ErrRecordingCancelled reports a cancel action before upload began.
	ErrRecordingCancelled = errors.New("recording cancelled")
)

// Kind is the failure class of a finished session.
type Kind string

const (
	KindNone                 Kind = ""
	KindPermissionDenied     Kind = "permission_denied"
	KindRecordingFailure     Kind = "recording_failure"
	KindNetworkTimeout       Kind = "network_timeout"
	KindUserCancelled        Kind = "user_cancelled"
	KindServerLogicalFailure Kind = "server_logical_failure"
	KindServerHTTPFailure    Kind = "server_http_failure"
	KindUnmounted            Kind = "unmounted_during_async"
	KindTransport            Kind = "transport_failure"
)

// Classify maps a session error onto its failure class.
func Classify(err error) Kind {
	var (
		httpErr   *upload.HTTPError
		serverErr *upload.ServerError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindUnmounted
	case errors.Is(err, permission.ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, upload.ErrCancelled), errors.Is(err, ErrRecordingCancelled):
		return KindUserCancelled
	case errors.Is(err, upload.ErrTimedOut):
		return KindNetworkTimeout
	case errors.As(err, &serverErr):
		return KindServerLogicalFailure
	case errors.As(err, &httpErr):
		return KindServerHTTPFailure
	case errors.Is(err, camera.ErrRecording), errors.Is(err, camera.ErrNoDevice):
		return KindRecordingFailure
	default:
		return KindTransport
	}
}

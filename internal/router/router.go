// Package router delivers a finished upload to exactly one destination.
package router

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rbright/signa/internal/upload"
)

const (
	TitleCancelled      = "Cancelled"
	TitleError          = "Error"
	TitleRecordingError = "Recording error"

	fallbackUploadMessage = "Failed to send video."
	fallbackRecordMessage = "Failed to record."
	fallbackStartMessage  = "Could not start recording."
)

// Params are the result display arguments, copied from the backend response.
type Params struct {
	TranslatedText       string
	UnrecognizedGestures int
	ProcessingTime       float64
}

// Navigator shows a successful translation.
type Navigator interface {
	Navigate(ctx context.Context, params Params)
}

// Alerter shows one blocking alert.
type Alerter interface {
	Alert(ctx context.Context, title string, message string)
}

// Outcome records which single action a route call took.
type Outcome int

const (
	OutcomeNavigated Outcome = iota + 1
	OutcomeAlerted
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNavigated:
		return "navigated"
	case OutcomeAlerted:
		return "alerted"
	case OutcomeDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Router gates every action on the owning session still being mounted.
type Router struct {
	nav     Navigator
	alert   Alerter
	mounted atomic.Bool
}

// New returns a mounted Router.
func New(nav Navigator, alert Alerter) *Router {
	r := &Router{nav: nav, alert: alert}
	r.mounted.Store(true)
	return r
}

// Unmount makes every later route call a discard.
func (r *Router) Unmount() {
	r.mounted.Store(false)
}

// Mounted reports whether routing actions are still applied.
func (r *Router) Mounted() bool {
	return r.mounted.Load()
}

// Route navigates on success or alerts on failure. User cancellation gets the
// Cancelled title; everything else is an Error.
func (r *Router) Route(ctx context.Context, result upload.Translation, err error) Outcome {
	if !r.Mounted() {
		return OutcomeDiscarded
	}
	if err == nil {
		r.nav.Navigate(ctx, Params{
			TranslatedText:       result.TranslatedText,
			UnrecognizedGestures: result.UnrecognizedGestures,
			ProcessingTime:       result.ProcessingTime,
		})
		return OutcomeNavigated
	}
	if errors.Is(err, upload.ErrCancelled) {
		r.alert.Alert(ctx, TitleCancelled, upload.ErrCancelled.Error())
		return OutcomeAlerted
	}
	r.alert.Alert(ctx, TitleError, message(err, fallbackUploadMessage))
	return OutcomeAlerted
}

// RecordingFailed alerts a recorder failure.
func (r *Router) RecordingFailed(ctx context.Context, err error) Outcome {
	return r.fail(ctx, TitleRecordingError, message(err, fallbackRecordMessage))
}

// StartFailed alerts a recorder that never started.
func (r *Router) StartFailed(ctx context.Context, err error) Outcome {
	return r.fail(ctx, TitleError, message(err, fallbackStartMessage))
}

func (r *Router) fail(ctx context.Context, title string, msg string) Outcome {
	if !r.Mounted() {
		return OutcomeDiscarded
	}
	r.alert.Alert(ctx, title, msg)
	return OutcomeAlerted
}

func message(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}

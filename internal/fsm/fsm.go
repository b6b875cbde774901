// Package fsm defines the owner-session state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateUploading State = "uploading"
	StateError     State = "error"
)

const (
	EventStart      Event = "start"
	EventUpload     Event = "upload"
	EventStop       Event = "stop"
	EventCancel     Event = "cancel"
	EventTranslated Event = "translated"
	EventFail       Event = "fail"
	EventReset      Event = "reset"
)

// Transition returns the state reached from current on event.
// Uploading is entered from recording only through stop; upload is the
// direct path used for pre-recorded clips.
func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateRecording, nil
		case EventUpload:
			return StateUploading, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateUploading, nil
		case EventCancel:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateUploading:
		switch event {
		case EventTranslated, EventCancel:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}

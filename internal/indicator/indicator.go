// Package indicator shows session state through notifications and audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/signa/internal/config"
	"github.com/rbright/signa/internal/hypr"
)

const (
	colorRecording = "rgb(89b4fa)"
	colorStatus    = "rgb(cba6f7)"
	colorResult    = "rgb(a6e3a1)"
	colorAlert     = "rgb(f38ba8)"

	stickyTimeoutMS = 300000
)

// Notifier is the concrete indicator used by runtime sessions. It routes
// through Hyprland or desktop DBus notifications based on config.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages

	mu                    sync.Mutex
	desktopNotificationID uint32
	soundMu               sync.Mutex
	cues                  sync.WaitGroup
}

// New creates a Notifier from config.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		cfg:      cfg,
		logger:   logger,
		messages: indicatorMessagesFromEnv(),
	}
}

// ShowRecording signals recording start and emits the start cue.
func (n *Notifier) ShowRecording(ctx context.Context, facing string, maxSeconds int) {
	n.playCue(cueStart)
	n.show(ctx, 1, stickyTimeoutMS, colorRecording, n.messages.recordingText(facing, maxSeconds))
}

// ShowStatus replaces the indicator text with an upload progress message.
func (n *Notifier) ShowStatus(ctx context.Context, text string) {
	n.show(ctx, 1, stickyTimeoutMS, colorStatus, text)
}

// ShowResult displays the translated text and emits the complete cue.
func (n *Notifier) ShowResult(ctx context.Context, text string) {
	n.playCue(cueComplete)
	n.show(ctx, 5, n.errorTimeout()*2, colorResult, n.messages.complete+": "+text)
}

// Alert shows a titled failure. An empty message uses the locale default.
func (n *Notifier) Alert(ctx context.Context, title string, message string) {
	if message == "" {
		message = n.messages.errorText
	}
	text := message
	if title != "" {
		text = title + ": " + message
	}
	n.show(ctx, 3, n.errorTimeout(), colorAlert, text)
}

// CueStop emits the stop cue.
func (n *Notifier) CueStop(context.Context) {
	n.playCue(cueStop)
}

// CueCancel emits the cancel cue.
func (n *Notifier) CueCancel(context.Context) {
	n.playCue(cueCancel)
}

// Hide dismisses the active indicator surface.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, n.dismiss)
}

// Wait blocks until queued cues finish so a short-lived process does not cut
// them off.
func (n *Notifier) Wait() {
	n.cues.Wait()
}

func (n *Notifier) show(ctx context.Context, icon int, timeoutMS int, color string, text string) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, icon, timeoutMS, color, text)
	})
}

func (n *Notifier) errorTimeout() int {
	if n.cfg.ErrorTimeoutMS <= 0 {
		return 1200
	}
	return n.cfg.ErrorTimeoutMS
}

func (n *Notifier) desktop() bool {
	return strings.EqualFold(strings.TrimSpace(n.cfg.Backend), "desktop")
}

func (n *Notifier) notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if n.desktop() {
		urgency := urgencyNormal
		if color == colorAlert {
			urgency = urgencyCritical
		}
		return n.notifyDesktop(ctx, timeoutMS, urgency, text)
	}
	return hypr.Notify(ctx, icon, timeoutMS, color, text)
}

func (n *Notifier) dismiss(ctx context.Context) error {
	if n.desktop() {
		return n.dismissDesktop(ctx)
	}
	return hypr.DismissNotify(ctx)
}

// notifyDesktop replaces the previous notification so status updates do not stack.
func (n *Notifier) notifyDesktop(ctx context.Context, timeoutMS int, urgency byte, text string) error {
	n.mu.Lock()
	replaceID := n.desktopNotificationID
	n.mu.Unlock()

	appName := strings.TrimSpace(n.cfg.DesktopAppName)
	if appName == "" {
		appName = "signa-indicator"
	}

	id, err := desktopNotify(ctx, desktopNotification{
		AppName:   appName,
		ReplaceID: replaceID,
		Summary:   text,
		Urgency:   urgency,
		TimeoutMS: timeoutMS,
	})
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.desktopNotificationID = id
	n.mu.Unlock()
	return nil
}

func (n *Notifier) dismissDesktop(ctx context.Context) error {
	n.mu.Lock()
	id := n.desktopNotificationID
	n.desktopNotificationID = 0
	n.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	n.cues.Add(1)
	go func() {
		defer n.cues.Done()
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		if err := emitCue(kind, n.cfg); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/signa/internal/auth"
	"github.com/rbright/signa/internal/camera"
	"github.com/rbright/signa/internal/config"
	"github.com/rbright/signa/internal/history"
	"github.com/rbright/signa/internal/indicator"
	"github.com/rbright/signa/internal/ipc"
	"github.com/rbright/signa/internal/output"
	"github.com/rbright/signa/internal/permission"
	"github.com/rbright/signa/internal/router"
	"github.com/rbright/signa/internal/session"
	"github.com/rbright/signa/internal/telemetry"
	"github.com/rbright/signa/internal/upload"
	"github.com/rbright/signa/internal/version"
)

// owner bundles the collaborators of one owner session.
type owner struct {
	ctrl     *session.Controller
	notifier *indicator.Notifier
	closers  []func()
}

func (o *owner) close() {
	if o.notifier != nil {
		o.notifier.Wait()
	}
	for i := len(o.closers) - 1; i >= 0; i-- {
		o.closers[i]()
	}
}

func (r Runner) commandToggle(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandToggle)
	if handled {
		return r.printForwarded(resp, err)
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			resp, _, forwardErr := tryForward(ctx, socketPath, ipc.CommandToggle)
			return r.printForwarded(resp, forwardErr)
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	o, err := r.newOwner(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("owner setup failed", "error", err.Error())
		return 1
	}
	defer o.close()

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, o.ctrl)
	}()

	result := o.ctrl.Run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logSessionResult(logger, result)
	return r.sessionExitCode(result)
}

func (r Runner) commandTranslate(ctx context.Context, cfg config.Config, clipPath string, logger *slog.Logger) int {
	info, err := os.Stat(clipPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if info.IsDir() {
		fmt.Fprintf(r.Stderr, "error: %s is a directory\n", clipPath)
		return 1
	}

	o, err := r.newOwner(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("owner setup failed", "error", err.Error())
		return 1
	}
	defer o.close()

	result := o.ctrl.RunUpload(ctx, clipPath)
	logSessionResult(logger, result)
	return r.sessionExitCode(result)
}

// newOwner resolves auth, tracing, history, and device wiring for a session.
func (r Runner) newOwner(ctx context.Context, cfg config.Config, logger *slog.Logger) (*owner, error) {
	o := &owner{}

	authSession, err := auth.NewProvider(cfg.Auth.TokenFile).Load()
	if err != nil {
		return nil, err
	}
	if err := auth.Require(authSession, cfg.Auth.Required); err != nil {
		return nil, err
	}
	if authSession.User != nil {
		logger.Debug("auth session", "user", authSession.User.ID, "route", auth.Decide(authSession).String())
	}

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Debug.TraceEndpoint)
	if err != nil {
		return nil, err
	}
	o.closers = append(o.closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Debug("trace shutdown failed", "error", err.Error())
		}
	})

	var store *history.Store
	if cfg.History.Enable {
		store, err = openHistory(ctx, cfg)
		if err != nil {
			logger.Warn("history unavailable", "error", err.Error())
			store = nil
		} else {
			o.closers = append(o.closers, func() { _ = store.Close() })
		}
	}
	facing := resolveFacing(ctx, cfg, store)

	clipDir, err := cfg.ClipDir()
	if err != nil {
		o.close()
		return nil, err
	}

	o.notifier = indicator.New(cfg.Indicator, logger)
	screenOpts := output.Options{
		Out:       r.Stdout,
		Err:       r.Stderr,
		Clipboard: cfg.Clipboard.Argv,
		Indicator: o.notifier,
		Facing:    string(facing),
		Logger:    logger,
	}
	if store != nil {
		screenOpts.History = store
	}
	screen := output.NewScreen(screenOpts)

	token := func() string { return "" }
	if cfg.API.SendIDToken {
		token = func() string { return authSession.IDToken }
	}
	client := upload.New(upload.Options{
		BaseURL:     cfg.API.BaseURL,
		PredictPath: cfg.API.PredictPath,
		UserAgent:   version.UserAgent(),
		Token:       token,
		Logger:      logger,
	})

	var mic permission.MicResolver
	if cfg.Audio.Enable {
		mic = permission.PulseResolver(cfg.Audio.Input, cfg.Audio.Fallback)
	}

	o.ctrl = session.NewController(logger, session.Deps{
		Gate: permission.NewGate(camera.DevicePath(cfg.Camera, facing), mic),
		NewRecorder: func(handle permission.Handle, facing camera.Facing) session.Recorder {
			return camera.NewRecorder(camera.Options{
				FFmpeg:     cfg.Capture.FFmpeg,
				Device:     handle.Device,
				Microphone: handle.Microphone,
				Dir:        clipDir,
				Facing:     facing,
				Logger:     logger,
			})
		},
		Begin: func(ctx context.Context, filePath string) session.Pending {
			return client.Begin(ctx, filePath)
		},
		Router:     router.New(screen, screen),
		Indicator:  o.notifier,
		Facing:     facing,
		MaxSeconds: cfg.Capture.MaxSeconds,
		KeepClips:  cfg.Capture.KeepClips,
	})
	return o, nil
}

// resolveFacing prefers the facing saved by flip over camera.facing.
func resolveFacing(ctx context.Context, cfg config.Config, store *history.Store) camera.Facing {
	if store != nil {
		if saved, err := store.Facing(ctx); err == nil && saved != "" {
			if parsed, err := camera.ParseFacing(saved); err == nil {
				return parsed
			}
		}
	}
	facing, err := camera.ParseFacing(cfg.Camera.Facing)
	if err != nil {
		return camera.Back
	}
	return facing
}

func openHistory(ctx context.Context, cfg config.Config) (*history.Store, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(ctx, path)
}

// sessionExitCode reports routed failures without repeating the alert text.
func (r Runner) sessionExitCode(result session.Result) int {
	switch {
	case result.Err == nil:
		return 0
	case result.Cancelled:
		fmt.Fprintln(r.Stdout, "cancelled")
		return 0
	case result.Outcome == router.OutcomeAlerted:
		return 1
	case result.Kind() == session.KindUnmounted:
		return 130
	default:
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}
}

func (r Runner) printForwarded(resp ipc.Response, err error) int {
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

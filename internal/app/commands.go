package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbright/signa/internal/audio"
	"github.com/rbright/signa/internal/auth"
	"github.com/rbright/signa/internal/camera"
	"github.com/rbright/signa/internal/cli"
	"github.com/rbright/signa/internal/config"
	"github.com/rbright/signa/internal/doctor"
	"github.com/rbright/signa/internal/history"
	"github.com/rbright/signa/internal/ipc"
	"github.com/rbright/signa/internal/output"
)

func (r Runner) commandDoctor(ctx context.Context, cfgLoaded config.Loaded) int {
	var store *history.Store
	if cfgLoaded.Config.History.Enable {
		if opened, err := openHistory(ctx, cfgLoaded.Config); err == nil {
			store = opened
			defer func() { _ = store.Close() }()
		}
	}
	report := doctor.Run(ctx, cfgLoaded, resolveFacing(ctx, cfgLoaded.Config, store))
	fmt.Fprintln(r.Stdout, report.String())
	if report.OK() {
		return 0
	}
	return 1
}

func (r Runner) commandDevices(ctx context.Context) int {
	cameras, err := camera.ListDevices()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, "cameras:")
	if len(cameras) == 0 {
		fmt.Fprintln(r.Stdout, "  none found")
	}
	for _, device := range cameras {
		fmt.Fprintf(r.Stdout, "  %s | name=%q\n", device.Path, device.Name)
	}

	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, "microphones:")
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "  none found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandHistory(ctx context.Context, cfg config.Config, limit int) int {
	if !cfg.History.Enable {
		fmt.Fprintln(r.Stderr, "error: history is disabled (history.enable=false)")
		return 1
	}
	store, err := openHistory(ctx, cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	entries, err := store.List(ctx, limit)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(r.Stdout, "no translations yet")
		return 0
	}
	for _, entry := range entries {
		fmt.Fprintf(r.Stdout, "%s | %s | gestures=%d | %sms | %q\n",
			entry.CreatedAt.Local().Format(time.DateTime),
			entry.Facing,
			entry.UnrecognizedGestures,
			output.FormatProcessingTime(entry.ProcessingTime),
			entry.TranslatedText,
		)
	}
	return 0
}

func (r Runner) commandWhoami(cfg config.Config) int {
	provider := auth.NewProvider(cfg.Auth.TokenFile)
	session, err := provider.Load()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	route := auth.Decide(session)
	if session.User == nil {
		fmt.Fprintf(r.Stdout, "route=%s | signed out\n", route)
		if err := auth.Require(session, cfg.Auth.Required); err != nil {
			return 1
		}
		return 0
	}

	line := fmt.Sprintf("route=%s | user=%s", route, session.User.ID)
	if session.User.Email != "" {
		line += " | email=" + session.User.Email
	}
	if !session.User.ExpiresAt.IsZero() {
		line += " | expires=" + session.User.ExpiresAt.Format(time.RFC3339)
	}
	fmt.Fprintln(r.Stdout, line)
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

// commandFlip is rejected by an active owner; otherwise it toggles the
// persisted facing used by the next session.
func (r Runner) commandFlip(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	if socketPath, err := ipc.RuntimeSocketPath(); err == nil {
		resp, handled, err := tryForward(ctx, socketPath, ipc.CommandFlip)
		if handled {
			return r.printForwarded(resp, err)
		}
	}

	if !cfg.History.Enable {
		fmt.Fprintln(r.Stderr, "error: flip needs history.enable=true to persist the camera facing")
		return 1
	}
	store, err := openHistory(ctx, cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	current, err := store.Facing(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if current == "" {
		current = cfg.Camera.Facing
	}
	facing, err := camera.ParseFacing(current)
	if err != nil {
		facing = camera.Back
	}

	next := facing.Toggle()
	if err := store.SetFacing(ctx, string(next)); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	logger.Info("camera facing changed", "from", string(facing), "to", string(next))
	fmt.Fprintf(r.Stdout, "camera: %s\n", next)
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command cli.Command) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, string(command))
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active signa session\n")
		return 1
	}
	return r.printForwarded(resp, err)
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.Unavailable(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

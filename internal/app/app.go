// Package app wires CLI commands to the owner session and its collaborators.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rbright/signa/internal/cli"
	"github.com/rbright/signa/internal/config"
	"github.com/rbright/signa/internal/logging"
	"github.com/rbright/signa/internal/session"
	"github.com/rbright/signa/internal/version"
)

const binaryName = "signa"

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logRuntime, err := logging.New(cfgLoaded.Config.Debug.Verbose)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		return r.commandDoctor(ctx, cfgLoaded)
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandHistory:
		return r.commandHistory(ctx, cfgLoaded.Config, parsed.Limit)
	case cli.CommandWhoami:
		return r.commandWhoami(cfgLoaded.Config)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, cli.CommandStop)
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, cli.CommandCancel)
	case cli.CommandFlip:
		return r.commandFlip(ctx, cfgLoaded.Config, logger)
	case cli.CommandToggle:
		return r.commandToggle(ctx, cfgLoaded.Config, logger)
	case cli.CommandTranslate:
		return r.commandTranslate(ctx, cfgLoaded.Config, parsed.ClipPath, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", result.State,
		"outcome", result.Outcome.String(),
		"cancelled", result.Cancelled,
		"facing", string(result.Facing),
		"camera_granted", result.Grants.Camera,
		"microphone_granted", result.Grants.Microphone,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"text_length", len(result.Translation.TranslatedText),
		"unrecognized_gestures", result.Translation.UnrecognizedGestures,
		"processing_time_ms", result.Translation.ProcessingTime,
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, "kind", string(result.Kind()), "error", result.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}

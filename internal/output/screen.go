// Package output is the terminal result screen: it prints translations and
// alerts, hands text to the clipboard, and records history.
package output

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rbright/signa/internal/history"
	"github.com/rbright/signa/internal/router"
)

// HistoryWriter stores successful translations.
type HistoryWriter interface {
	Save(ctx context.Context, entry history.Entry) (history.Entry, error)
}

// Indicator mirrors results and alerts on screen.
type Indicator interface {
	ShowResult(ctx context.Context, text string)
	Alert(ctx context.Context, title string, message string)
}

// Options wires a Screen. Nil collaborators are skipped.
type Options struct {
	Out       io.Writer
	Err       io.Writer
	Clipboard []string
	History   HistoryWriter
	Indicator Indicator
	Facing    string
	Logger    *slog.Logger
}

// Screen implements router.Navigator and router.Alerter for the CLI.
type Screen struct {
	opts Options
}

// NewScreen constructs a Screen.
func NewScreen(opts Options) *Screen {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Err == nil {
		opts.Err = io.Discard
	}
	return &Screen{opts: opts}
}

// Navigate shows a translation. Side effects after printing are best-effort.
func (s *Screen) Navigate(ctx context.Context, params router.Params) {
	fmt.Fprintln(s.opts.Out, params.TranslatedText)
	fmt.Fprintf(s.opts.Out, "unrecognized gestures: %d\n", params.UnrecognizedGestures)
	fmt.Fprintf(s.opts.Out, "processing time: %s ms\n", FormatProcessingTime(params.ProcessingTime))

	if s.opts.Indicator != nil {
		s.opts.Indicator.ShowResult(ctx, params.TranslatedText)
	}

	if len(s.opts.Clipboard) > 0 && strings.TrimSpace(params.TranslatedText) != "" {
		if err := copyToClipboard(ctx, s.opts.Clipboard, params.TranslatedText); err != nil {
			s.logWarn("clipboard hand-off failed", err)
		}
	}

	if s.opts.History != nil {
		_, err := s.opts.History.Save(ctx, history.Entry{
			TranslatedText:       params.TranslatedText,
			UnrecognizedGestures: params.UnrecognizedGestures,
			ProcessingTime:       params.ProcessingTime,
			Facing:               s.opts.Facing,
		})
		if err != nil {
			s.logWarn("history save failed", err)
		}
	}
}

// Alert prints one titled alert.
func (s *Screen) Alert(ctx context.Context, title string, message string) {
	fmt.Fprintf(s.opts.Err, "%s: %s\n", title, message)
	if s.opts.Indicator != nil {
		s.opts.Indicator.Alert(ctx, title, message)
	}
}

// FormatProcessingTime renders the backend number without added precision.
func FormatProcessingTime(ms float64) string {
	return strconv.FormatFloat(ms, 'f', -1, 64)
}

func (s *Screen) logWarn(msg string, err error) {
	if s.opts.Logger == nil {
		return
	}
	s.opts.Logger.Warn(msg, "error", err.Error())
}

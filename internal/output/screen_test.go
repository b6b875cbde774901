package output

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rbright/signa/internal/history"
	"github.com/rbright/signa/internal/router"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	entries []history.Entry
	err     error
}

func (f *fakeHistory) Save(_ context.Context, entry history.Entry) (history.Entry, error) {
	f.entries = append(f.entries, entry)
	return entry, f.err
}

type fakeIndicator struct {
	results []string
	alerts  []string
}

func (f *fakeIndicator) ShowResult(_ context.Context, text string) {
	f.results = append(f.results, text)
}

func (f *fakeIndicator) Alert(_ context.Context, title string, message string) {
	f.alerts = append(f.alerts, title+"|"+message)
}

var (
	_ router.Navigator = (*Screen)(nil)
	_ router.Alerter   = (*Screen)(nil)
)

func TestNavigatePrintsCopiesAndRecords(t *testing.T) {
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")
	var out bytes.Buffer
	hist := &fakeHistory{}
	ind := &fakeIndicator{}

	screen := NewScreen(Options{
		Out:       &out,
		Clipboard: []string{writeStdinCaptureScript(t), clipboardPath},
		History:   hist,
		Indicator: ind,
		Facing:    "front",
	})
	screen.Navigate(context.Background(), router.Params{TranslatedText: "HELLO WORLD", UnrecognizedGestures: 1, ProcessingTime: 842})

	require.Equal(t, "HELLO WORLD\nunrecognized gestures: 1\nprocessing time: 842 ms\n", out.String())
	data, err := os.ReadFile(clipboardPath)
	require.NoError(t, err)
	require.Equal(t, "HELLO WORLD", string(data))
	require.Equal(t, []history.Entry{{TranslatedText: "HELLO WORLD", UnrecognizedGestures: 1, ProcessingTime: 842, Facing: "front"}}, hist.entries)
	require.Equal(t, []string{"HELLO WORLD"}, ind.results)
}

func TestNavigateSideEffectFailuresAreNotFatal(t *testing.T) {
	var out bytes.Buffer
	hist := &fakeHistory{err: errors.New("disk full")}

	screen := NewScreen(Options{
		Out:       &out,
		Clipboard: []string{writeFailScript(t, "no display")},
		History:   hist,
	})
	screen.Navigate(context.Background(), router.Params{TranslatedText: "THANK YOU", ProcessingTime: 12.5})

	require.Contains(t, out.String(), "processing time: 12.5 ms")
	require.Len(t, hist.entries, 1)
}

func TestNavigateSkipsClipboardForEmptyText(t *testing.T) {
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")
	screen := NewScreen(Options{Clipboard: []string{writeStdinCaptureScript(t), clipboardPath}})
	screen.Navigate(context.Background(), router.Params{})

	_, err := os.Stat(clipboardPath)
	require.True(t, os.IsNotExist(err))
}

func TestAlertPrintsTitleAndMessage(t *testing.T) {
	var errOut bytes.Buffer
	ind := &fakeIndicator{}
	screen := NewScreen(Options{Err: &errOut, Indicator: ind})

	screen.Alert(context.Background(), "Cancelled", "Upload cancelled.")
	require.Equal(t, "Cancelled: Upload cancelled.\n", errOut.String())
	require.Equal(t, []string{"Cancelled|Upload cancelled."}, ind.alerts)
}

func TestRunCommandWithInput(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "stdin.txt")
	require.NoError(t, runCommandWithInput(context.Background(), []string{writeStdinCaptureScript(t), outputPath}, "hello from signa"))
	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, "hello from signa", string(data))

	err = runCommandWithInput(context.Background(), nil, "payload")
	require.ErrorContains(t, err, "argv cannot be empty")
}

func TestCopyToClipboardWrapsFailure(t *testing.T) {
	err := copyToClipboard(context.Background(), []string{writeFailScript(t, "clipboard failed")}, "x")
	require.ErrorContains(t, err, "set clipboard")
}

func TestFormatProcessingTime(t *testing.T) {
	require.Equal(t, "842", FormatProcessingTime(842))
	require.Equal(t, "0.25", FormatProcessingTime(0.25))
}

func writeStdinCaptureScript(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "capture-stdin.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\ncat > \"$1\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeFailScript(t *testing.T, message string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fail.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\necho \"" + message + "\" >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringIncludesBuildMetadata(t *testing.T) {
	originalVersion := Version
	originalCommit := Commit
	originalDate := Date
	t.Cleanup(func() {
		Version = originalVersion
		Commit = originalCommit
		Date = originalDate
	})

	Version = "0.4.0"
	Commit = "f00dbab"
	Date = "2026-10-16"

	got := String()
	require.Contains(t, got, "signa 0.4.0")
	require.Contains(t, got, "commit=f00dbab")
	require.Contains(t, got, "date=2026-10-16")
	require.Contains(t, got, "go=")
	require.Equal(t, "signa/0.4.0", UserAgent())
}

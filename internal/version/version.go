// Package version exposes build metadata injected through -ldflags.
package version

import "runtime"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func String() string {
	return "signa " + Version + " (commit=" + Commit + ", date=" + Date + ", go=" + runtime.Version() + ")"
}

// UserAgent is the HTTP user agent sent with backend requests.
func UserAgent() string {
	return "signa/" + Version
}

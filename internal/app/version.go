package app

import (
	"fmt"
	"io"
	"runtime"
)

// Build information, set with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// VersionString returns the version line.
func VersionString() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s/%s)", Version, Commit, BuildDate, runtime.GOOS, runtime.GOARCH)
}

// PrintVersion writes the version line to out.
func PrintVersion(out io.Writer) {
	fmt.Fprintf(out, "cmpnc %s\n", VersionString())
}

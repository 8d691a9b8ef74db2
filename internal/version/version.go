// Package version carries build metadata stamped in with -ldflags -X.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	GitSHA    = "unknown"
	BuildTime = "unknown"
)

// String formats the build metadata for the named binary.
func String(binary, version, sha, built string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s/%s)",
		binary, version, sha, built, runtime.GOOS, runtime.GOARCH)
}

// Package version reports build information. The variables are set at link
// time, e.g. -ldflags "-X github.com/aicsr/concierge/version.GitRelease=v0.1.0".
package version

import (
	"fmt"
	"runtime"
)

var (
	GitRelease    = "dev"
	GitCommit     = "unknown"
	GitCommitDate = "unknown"
	GoInfo        = fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
)

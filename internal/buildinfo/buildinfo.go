// Package buildinfo exposes build metadata injected at link time via
//
//	-ldflags "-X .../internal/buildinfo.buildVersion=... \
//	          -X .../internal/buildinfo.buildDate=... \
//	          -X .../internal/buildinfo.buildCommit=..."
package buildinfo

import (
	"fmt"
	"io"
)

var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

// PrintBuildData writes the build metadata to w.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", buildVersion)
	fmt.Fprintf(w, "Build date: %s\n", buildDate)
	fmt.Fprintf(w, "Build commit: %s\n", buildCommit)
}

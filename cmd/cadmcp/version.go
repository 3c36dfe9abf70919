package main

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

type BuildInfo struct {
	Version, BuildDate, GitCommit, GoVersion, Platform string
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("cadmcp %s (commit %s, built %s) %s %s",
		b.Version, b.GitCommit, b.BuildDate, b.GoVersion, b.Platform)
}

// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the semantic version, set manually for releases or
// overridden via -ldflags:
//
//	go build -ldflags "-X github.com/warren-project/warren/lib/version.Version=1.2.0"
var Version = "0.1.0-dev"

// Build describes how the running binary was produced.
type Build struct {
	Commit string // short VCS revision, or "unknown"
	Dirty  bool   // uncommitted changes at build time
	Time   string // UTC commit timestamp, or "unknown"
}

// Current reads VCS metadata stamped into the binary by the Go
// toolchain. Binaries built outside a checkout report "unknown".
func Current() Build {
	b := Build{Commit: "unknown", Time: "unknown"}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if len(setting.Value) >= 12 {
				b.Commit = setting.Value[:12]
			} else if setting.Value != "" {
				b.Commit = setting.Value
			}
		case "vcs.modified":
			b.Dirty = setting.Value == "true"
		case "vcs.time":
			b.Time = setting.Value
		}
	}
	return b
}

// Info returns a one-line version string suitable for --version output.
func Info() string {
	b := Current()
	dirty := ""
	if b.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, b.Commit, dirty, b.Time)
}

// Full returns detailed version information including Go version.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version number.
func Short() string {
	return Version
}

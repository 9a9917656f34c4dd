// Package version carries the firmware version string. Provisioning
// reports it in the device-info reply, so it must stay short enough for
// a one-byte length prefix.
package version

import (
	"fmt"
	"runtime/debug"
)

// These variables can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/Kim1ni/lumina-firmware/internal/version.Version=1.2.0 \
//	                   -X github.com/Kim1ni/lumina-firmware/internal/version.Commit=abc123"
//
// If not set, Commit is populated from VCS build info when available.
var (
	// Version is the semantic firmware version.
	Version = "1.0.0"
	// Commit is the git commit hash.
	Commit = ""
)

func init() {
	if Commit == "" {
		populateFromBuildInfo()
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// populateFromBuildInfo reads the VCS revision from Go's build info.
func populateFromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	var vcsRevision, vcsModified string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			vcsRevision = setting.Value
		case "vcs.modified":
			vcsModified = setting.Value
		}
	}

	if vcsRevision != "" {
		if len(vcsRevision) > 7 {
			Commit = vcsRevision[:7]
		} else {
			Commit = vcsRevision
		}
		if vcsModified == "true" {
			Commit += "-dirty"
		}
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

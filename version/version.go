// Package version provides the version information and build metadata of nyarchiver.
//
// The Version, Commit and Date variables are set at build time using:
//
//	-ldflags "-X github.com/nercone/nyarchiver/version.Version=v1.0.0 -X github.com/nercone/nyarchiver/version.Commit=abc123"
//
// Otherwise the values are read from the Go build info.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// These are set by build flags or default to development values.
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info contains version information.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// GetVersion returns the version string, preferring the compile-time version if available.
func GetVersion() string {
	if Version != "dev" && Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "development"
}

// setting returns the build setting of the key, or the value when it has been set.
func setting(value, key string) string {
	if value != "unknown" && value != "" {
		return value
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == key {
				return s.Value
			}
		}
	}
	return "unknown"
}

// GetInfo returns complete version information.
func GetInfo() Info {
	return Info{
		Version: GetVersion(),
		Commit:  setting(Commit, "vcs.revision"),
		Date:    setting(Date, "vcs.time"),
	}
}

// GetFullVersion returns a formatted version string with the short commit and date.
func GetFullVersion() string {
	info := GetInfo()
	if info.Commit == "unknown" || len(info.Commit) <= 7 {
		return info.Version
	}
	short := info.Commit[:7]
	if info.Date != "unknown" {
		return fmt.Sprintf("%s (%s, built %s)", info.Version, short, info.Date)
	}
	return fmt.Sprintf("%s (%s)", info.Version, short)
}

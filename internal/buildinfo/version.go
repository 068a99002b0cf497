// Package buildinfo reports the running binary's version, derived from
// runtime/debug.ReadBuildInfo() VCS settings. Grounded on the teacher's
// src/version.go.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"strconv"
)

// Version is set at build time via -ldflags "-X '.../internal/buildinfo.Version=X'".
var Version string

func settingOrDefault(bi *debug.BuildInfo, key, defaultValue string) string {
	for _, bs := range bi.Settings {
		if bs.Key == key {
			return bs.Value
		}
	}
	return defaultValue
}

// Info is a point-in-time summary of the running build.
type Info struct {
	Version string
	Commit  string
	Dirty   bool
	BuiltAt string
}

// Read resolves Info from runtime/debug.ReadBuildInfo(), falling back to
// "UNKNOWN" fields when no module build info is embedded (e.g. `go run`).
func Read() Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{Version: orUnknown(Version), Commit: "UNKNOWN", BuiltAt: "UNKNOWN"}
	}

	commit := settingOrDefault(bi, "vcs.revision", "UNKNOWN")
	dirtyStr := settingOrDefault(bi, "vcs.modified", "false")
	dirty, _ := strconv.ParseBool(dirtyStr)
	builtAt := settingOrDefault(bi, "vcs.time", "UNKNOWN")

	return Info{
		Version: orUnknown(Version),
		Commit:  commit,
		Dirty:   dirty,
		BuiltAt: builtAt,
	}
}

func orUnknown(v string) string {
	if v == "" {
		return "UNKNOWN"
	}
	return v
}

// String renders the one-line form the CLI's --version flag prints.
func (i Info) String() string {
	commit := i.Commit
	if i.Dirty {
		commit += "-DIRTY"
	}
	return fmt.Sprintf("spacelinkd %s (revision %s, built at %s)", i.Version, commit, i.BuiltAt)
}

package main

import (
	_ "embed"
	"runtime/debug"
	"strings"
)

//go:embed VERSION
var embeddedVersion string

// Version returns the version string.
//
// When installed via `go install ...@version`, returns the module version (e.g., "v0.1.0").
// For development builds, returns "devel-0.1.0+abc1234" with VCS revision if available.
func Version() string {
	info, _ := debug.ReadBuildInfo()
	return version(strings.TrimSpace(embeddedVersion), info)
}

func version(base string, info *debug.BuildInfo) string {
	if info == nil {
		return base
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	var rev string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if len(s.Value) >= 7 {
				rev = s.Value[:7]
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return "devel-" + base
	}
	if dirty {
		rev += "-dirty"
	}
	return "devel-" + base + "+" + rev
}

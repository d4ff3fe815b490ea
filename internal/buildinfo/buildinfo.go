// Package buildinfo exposes version metadata for the CLI. Values can be
// overridden at build time via -ldflags; empty values fall back to the ones
// stamped into the cli package.
package buildinfo

import (
	"runtime"
	"strings"

	"github.com/flarebyte/shiftlog/cli"
)

var (
	// Version is the semantic version or custom string. Defaults to cli.Version or "dev".
	Version = "dev"
	// Commit is the VCS commit hash (optional).
	Commit = ""
	// Date is the build time (optional). Falls back to cli.Date.
	Date = ""
)

func version() string {
	if Version != "" {
		return Version
	}
	if cli.Version != "" {
		return cli.Version
	}
	return "dev"
}

func date() string {
	if Date != "" {
		return Date
	}
	return cli.Date
}

// Summary returns a concise single-line version string.
func Summary() string {
	v := version()
	parts := make([]string, 0, 2)
	if Commit != "" {
		c := Commit
		if len(c) > 7 {
			c = c[:7]
		}
		parts = append(parts, "commit="+c)
	}
	if d := date(); d != "" {
		parts = append(parts, "date="+d)
	}
	if len(parts) > 0 {
		v += " (" + strings.Join(parts, ", ") + ")"
	}
	return v
}

// Info is the detailed version report.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	GoOS    string `json:"go_os"`
	GoArch  string `json:"go_arch"`
}

// Current returns the version report of this binary.
func Current() Info {
	return Info{
		Version: version(),
		Commit:  Commit,
		Date:    date(),
		Go:      runtime.Version(),
		GoOS:    runtime.GOOS,
		GoArch:  runtime.GOARCH,
	}
}

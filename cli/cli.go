package cli

// Version and Date are stamped by release builds, e.g.:
//
//	-ldflags "-X 'github.com/flarebyte/shiftlog/cli.Version=0.4.0' -X 'github.com/flarebyte/shiftlog/cli.Date=2026-10-01'"
var (
	Version string
	Date    string
)

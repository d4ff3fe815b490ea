package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/flarebyte/shiftlog/internal/config"
	"github.com/flarebyte/shiftlog/internal/export"
	"github.com/flarebyte/shiftlog/internal/form"
	"github.com/flarebyte/shiftlog/internal/record"
	"github.com/flarebyte/shiftlog/internal/stage"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Export.OutDir = filepath.Join(cfg.DataDir, "out")
	cfg.Categories[record.Filling] = config.Category{Label: "Filling"}
	return cfg
}

func TestOpen_WiresConfiguredLabelsAndFormat(t *testing.T) {
	a, err := Open(testConfig(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if a.Exports.Label(record.Filling) != "Filling" || a.Exports.Label(record.Coloring) != "צבע" {
		t.Fatalf("labels not wired")
	}
	if a.KV.Dir() != filepath.Join(a.Config.DataDir, "store") {
		t.Fatalf("kv dir: %s", a.KV.Dir())
	}
	if a.WithFormat("") != a.Exports || a.WithFormat(stage.FormatXLSX) == a.Exports {
		t.Fatalf("format override")
	}
	if a.Handoff() != nil {
		t.Fatalf("handoff must be off by default")
	}
	if a.Sink("").Dir != a.Config.Export.OutDir {
		t.Fatalf("sink dir")
	}
}

func TestCache_UsesConfiguredIdentity(t *testing.T) {
	a, err := Open(testConfig(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	c, err := a.Cache(nil)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	if c.ID() != "employee-tracking-v1" || c.Installed() {
		t.Fatalf("cache: %s installed=%v", c.ID(), c.Installed())
	}
}

func TestConfigFromContext(t *testing.T) {
	cfg := testConfig(t)
	if got := ConfigFrom(WithConfig(context.Background(), cfg)); got.DataDir != cfg.DataDir {
		t.Fatalf("dataDir: %s", got.DataDir)
	}
	if got := ConfigFrom(context.Background()); got.DataDir != ".shiftlog" {
		t.Fatalf("defaults expected, got %s", got.DataDir)
	}
}

func TestClassifyExit(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{export.ErrNotConfirmed, ExitDeclined},
		{fmt.Errorf("%w: injection", form.ErrRejected), ExitRejected},
		{form.ErrMissingEmployee, ExitRejected},
	}
	for _, tc := range cases {
		var ee ExitError
		if !errors.As(ClassifyExit(tc.err), &ee) || ee.ExitCode() != tc.code {
			t.Fatalf("%v: want code %d", tc.err, tc.code)
		}
	}
	plain := errors.New("boom")
	if ClassifyExit(plain) != plain || ClassifyExit(nil) != nil {
		t.Fatalf("other errors pass through")
	}
}

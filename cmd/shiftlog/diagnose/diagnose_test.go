package diagnose

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/flarebyte/shiftlog/internal/app"
	"github.com/flarebyte/shiftlog/internal/config"
	"github.com/flarebyte/shiftlog/internal/record"
	"github.com/flarebyte/shiftlog/internal/stage"
	"github.com/flarebyte/shiftlog/internal/store"
)

func run(t *testing.T, cfg config.Config) (stage.Envelope, error) {
	t.Helper()
	var buf bytes.Buffer
	Cmd.SetOut(&buf)
	Cmd.SetContext(app.WithConfig(context.Background(), cfg))
	if err := Cmd.RunE(Cmd, nil); err != nil {
		return stage.Envelope{}, err
	}
	var env stage.Envelope
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return env, nil
}

func resetFlags(t *testing.T) {
	t.Cleanup(func() {
		flagStage, flagPipeline, flagCategory, flagFormat, flagIn, flagDumpOut = "", "", "", "", "", ""
		flagLimit = 0
	})
}

func seeded(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	a, err := app.Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := a.Store.WriteProfile(store.Profile{Name: "דנה", Number: "007"}); err != nil {
		t.Fatalf("profile: %v", err)
	}
	for _, cat := range []record.Category{record.Injection, record.Filling} {
		if _, err := a.Store.Append(cat, []record.Field{{Key: "itemCode", Value: "X"}}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return cfg
}

func TestDiagnose_PreviewPipeline(t *testing.T) {
	resetFlags(t)
	flagPipeline = stage.ActionPreview
	flagLimit = 1
	env, err := run(t, seeded(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(env.Records) != 1 || env.Meta.Stage != "limit-records" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestDiagnose_SingleStage(t *testing.T) {
	resetFlags(t)
	flagStage = "load-logs"
	flagCategory = "filling"
	env, err := run(t, seeded(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(env.Records) != 1 || env.Records[0].Category != record.Filling {
		t.Fatalf("unexpected records: %+v", env.Records)
	}
}

func TestDiagnose_RequiresMode(t *testing.T) {
	resetFlags(t)
	if _, err := run(t, config.Default()); err == nil || err.Error() != "missing required flag: --stage or --pipeline" {
		t.Fatalf("unexpected error: %v", err)
	}
}

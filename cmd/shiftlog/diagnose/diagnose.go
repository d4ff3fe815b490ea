package diagnose

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flarebyte/shiftlog/internal/app"
	"github.com/flarebyte/shiftlog/internal/record"
	"github.com/flarebyte/shiftlog/internal/stage"
)

var (
	flagStage    string
	flagPipeline string
	flagCategory string
	flagLimit    int
	flagFormat   string
	flagIn       string
	flagDumpOut  string
)

// Cmd implements `shiftlog diagnose`.
var Cmd = &cobra.Command{
	Use:           "diagnose",
	Short:         "Run a single stage or a prepared pipeline and print the envelope",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagStage == "" && flagPipeline == "" {
			return errors.New("missing required flag: --stage or --pipeline")
		}
		if flagStage != "" && flagPipeline != "" {
			return errors.New("--stage and --pipeline are mutually exclusive")
		}
		a, err := app.FromContext(cmd.Context())
		if err != nil {
			return err
		}
		in, err := prepareInput(a)
		if err != nil {
			return err
		}
		stages := []string{flagStage}
		if flagPipeline != "" {
			in.Meta.Action = flagPipeline
			if stages, err = stage.PreparedActionStages(flagPipeline, in.Meta); err != nil {
				return err
			}
		}
		out, err := stage.RunSequence(cmd.Context(), stages, in, stage.Deps{Logs: a.Store}, nil)
		if err != nil {
			return err
		}
		if flagDumpOut != "" {
			if err := writeJSONFile(flagDumpOut, out); err != nil {
				return err
			}
		}
		return printEnvelopeOneLine(cmd.OutOrStdout(), out)
	},
}

func init() {
	Cmd.Flags().StringVar(&flagStage, "stage", "", "Stage name ("+fmt.Sprint(stage.Names())+")")
	Cmd.Flags().StringVar(&flagPipeline, "pipeline", "", "Prepared action: export-category|export-all|preview")
	Cmd.Flags().StringVar(&flagCategory, "category", "", "Restrict loading to one category")
	Cmd.Flags().IntVar(&flagLimit, "limit", 0, "Record limit for limit-records")
	Cmd.Flags().StringVar(&flagFormat, "format", "", "Serialize format (default from config)")
	Cmd.Flags().StringVar(&flagIn, "in", "", "Path to input envelope JSON")
	Cmd.Flags().StringVar(&flagDumpOut, "dump-out", "", "Path to write output envelope JSON")
}

// prepareInput reads --in when given, otherwise builds the envelope meta
// from config and flags.
func prepareInput(a *app.App) (stage.Envelope, error) {
	var env stage.Envelope
	if flagIn != "" {
		b, err := os.ReadFile(flagIn)
		if err != nil {
			return stage.Envelope{}, fmt.Errorf("failed to read input: %w", err)
		}
		if err := json.Unmarshal(b, &env); err != nil {
			return stage.Envelope{}, fmt.Errorf("invalid input JSON: %v", err)
		}
	}
	if env.Meta == nil {
		env.Meta = &stage.Meta{}
	}
	if env.Records == nil {
		env.Records = []stage.Entry{}
	}
	m := env.Meta
	if m.Labels == nil {
		m.Labels = map[string]string{}
		for k, v := range a.Config.Labels() {
			m.Labels[string(k)] = v
		}
	}
	if flagCategory != "" {
		cat, err := record.Parse(flagCategory)
		if err != nil {
			return stage.Envelope{}, err
		}
		m.Categories = []record.Category{cat}
	}
	if flagLimit > 0 {
		m.Limit = flagLimit
	}
	switch {
	case flagFormat != "":
		m.Format = flagFormat
	case m.Format == "":
		m.Format = a.Config.Export.Format
	}
	return env, nil
}

func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create dump dir: %w", err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func printEnvelopeOneLine(w io.Writer, env stage.Envelope) error {
	stage.SortEnvelopeErrors(&env)
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

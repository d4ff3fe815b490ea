package exports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flarebyte/shiftlog/cmd/shiftlog/output"
	"github.com/flarebyte/shiftlog/internal/app"
	"github.com/flarebyte/shiftlog/internal/export"
	"github.com/flarebyte/shiftlog/internal/record"
	"github.com/flarebyte/shiftlog/internal/stage"
	"github.com/flarebyte/shiftlog/internal/tui"
)

var (
	flagFormat string
	flagOut    string
	flagLimit  int
	flagJSON   bool
	flagYes    bool
)

// Cmd implements `shiftlog export [category]`. Without a category every
// log is exported into one combined file.
var Cmd = &cobra.Command{
	Use:           "export [category]",
	Short:         "Export records to a CSV or XLSX file",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagFormat != "" && flagFormat != stage.FormatCSV && flagFormat != stage.FormatXLSX {
			return fmt.Errorf("unsupported export format: %s", flagFormat)
		}
		a, err := app.FromContext(cmd.Context())
		if err != nil {
			return err
		}
		coord := a.WithFormat(flagFormat)
		var d export.Download
		if len(args) == 1 {
			cat, perr := record.Parse(args[0])
			if perr != nil {
				return perr
			}
			d, err = coord.ExportCategory(cmd.Context(), cat)
		} else {
			d, err = coord.ExportAll(cmd.Context())
		}
		if errors.Is(err, export.ErrNothingToExport) {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), advisory(err))
			return nil
		}
		if err != nil {
			return err
		}
		path, err := a.Sink(flagOut).Write(d)
		if err != nil {
			return err
		}
		res := result{File: path, Records: d.Records, Skipped: d.Skipped}
		if h := a.Handoff(); h != nil {
			if res.Commit, err = h.Commit(path, a.Store.ReadProfile()); err != nil {
				return err
			}
		}
		return output.JSON(cmd.OutOrStdout(), res)
	},
}

type result struct {
	File    string        `json:"file"`
	Records int           `json:"records"`
	Skipped []stage.Error `json:"skipped,omitempty"`
	Commit  string        `json:"commit,omitempty"`
}

// advisory strips the sentinel prefix so only the operator text remains.
func advisory(err error) string {
	return strings.TrimPrefix(err.Error(), export.ErrNothingToExport.Error()+": ")
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the most recent records across all categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.FromContext(cmd.Context())
		if err != nil {
			return err
		}
		items, err := a.Exports.PreviewRecent(cmd.Context(), flagLimit)
		if err != nil {
			return err
		}
		if flagJSON {
			if items == nil {
				items = []export.PreviewItem{}
			}
			return output.JSON(cmd.OutOrStdout(), items)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), tui.RenderPreview(items))
		return err
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count records per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.FromContext(cmd.Context())
		if err != nil {
			return err
		}
		s, err := a.Exports.Summary()
		if err != nil {
			return err
		}
		if flagJSON {
			return output.JSON(cmd.OutOrStdout(), s)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), tui.RenderSummary(s))
		return err
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every record after confirmation",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.FromContext(cmd.Context())
		if err != nil {
			return err
		}
		confirm := export.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
			if flagYes {
				return true, nil
			}
			return tui.Confirm(ctx, cmd.InOrStdin(), cmd.ErrOrStderr(), prompt)
		})
		if err := a.Exports.ClearAll(cmd.Context(), confirm); err != nil {
			return app.ClassifyExit(err)
		}
		return output.JSON(cmd.OutOrStdout(), map[string]any{"cleared": true, "message": export.ClearedMessage})
	},
}

func init() {
	Cmd.Flags().StringVar(&flagFormat, "format", "", "csv or xlsx (default from config)")
	Cmd.Flags().StringVar(&flagOut, "out", "", "Output directory (default export.outDir)")
	previewCmd.Flags().IntVar(&flagLimit, "limit", export.DefaultPreviewLimit, "Number of records")
	previewCmd.Flags().BoolVar(&flagJSON, "json", false, "Print JSON instead of a table")
	summaryCmd.Flags().BoolVar(&flagJSON, "json", false, "Print JSON instead of a table")
	clearCmd.Flags().BoolVar(&flagYes, "yes", false, "Skip the confirmation prompt")
	Cmd.AddCommand(previewCmd, summaryCmd, clearCmd)
}

package records

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flarebyte/shiftlog/cmd/shiftlog/output"
	"github.com/flarebyte/shiftlog/internal/app"
	"github.com/flarebyte/shiftlog/internal/record"
)

var flagFields []string

// Cmd implements `shiftlog record`.
var Cmd = &cobra.Command{
	Use:           "record",
	Short:         "Add or list activity records",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var addCmd = &cobra.Command{
	Use:   "add <category>",
	Short: "Submit one form for a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := record.Parse(args[0])
		if err != nil {
			return err
		}
		fields, err := parseFields(flagFields)
		if err != nil {
			return err
		}
		a, err := app.FromContext(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.Admitter.Admit(cmd.Context(), cat, fields, a.Store.ReadProfile()); err != nil {
			return app.ClassifyExit(err)
		}
		rec, err := a.Store.Append(cat, fields)
		if err != nil {
			return err
		}
		return output.JSON(cmd.OutOrStdout(), rec)
	},
}

var listCmd = &cobra.Command{
	Use:   "list <category>",
	Short: "Print a category log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := record.Parse(args[0])
		if err != nil {
			return err
		}
		a, err := app.FromContext(cmd.Context())
		if err != nil {
			return err
		}
		l, err := a.Store.Load(cat)
		if err != nil {
			return err
		}
		return output.JSON(cmd.OutOrStdout(), l)
	},
}

// parseFields turns k=v flags into fields, keeping flag order.
func parseFields(raw []string) ([]record.Field, error) {
	out := make([]record.Field, 0, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --field %q (expected key=value)", kv)
		}
		out = append(out, record.Field{Key: k, Value: v})
	}
	return out, nil
}

func init() {
	addCmd.Flags().StringArrayVarP(&flagFields, "field", "f", nil, "Form field as key=value (repeatable)")
	Cmd.AddCommand(addCmd, listCmd)
}

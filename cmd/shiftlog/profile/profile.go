package profile

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/flarebyte/shiftlog/cmd/shiftlog/output"
	"github.com/flarebyte/shiftlog/internal/app"
	"github.com/flarebyte/shiftlog/internal/store"
	"github.com/flarebyte/shiftlog/internal/tui"
)

var (
	flagName   string
	flagNumber string
)

// Cmd implements `shiftlog profile`.
var Cmd = &cobra.Command{
	Use:           "profile",
	Short:         "Show or change the operator profile",
	SilenceUsage:  true,
	SilenceErrors: true,
}

type profileView struct {
	store.Profile
	Complete bool `json:"complete"`
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the operator name and number",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.FromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := store.Profile{Name: flagName, Number: flagNumber}
		if err := a.Store.WriteProfile(p); err != nil {
			return err
		}
		return output.JSON(cmd.OutOrStdout(), profileView{Profile: p, Complete: p.Complete()})
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored operator profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.FromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := a.Store.ReadProfile()
		return output.JSON(cmd.OutOrStdout(), profileView{Profile: p, Complete: p.Complete()})
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Edit the operator profile interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.FromContext(cmd.Context())
		if err != nil {
			return err
		}
		p, saved, err := tui.EditProfile(cmd.Context(), cmd.InOrStdin(), cmd.ErrOrStderr(), a.Store.ReadProfile())
		if err != nil {
			return err
		}
		if !saved {
			return errors.New("profile setup cancelled")
		}
		if err := a.Store.WriteProfile(p); err != nil {
			return err
		}
		return output.JSON(cmd.OutOrStdout(), profileView{Profile: p, Complete: p.Complete()})
	},
}

func init() {
	setCmd.Flags().StringVar(&flagName, "name", "", "Operator name")
	setCmd.Flags().StringVar(&flagNumber, "number", "", "Operator number")
	_ = setCmd.MarkFlagRequired("name")
	_ = setCmd.MarkFlagRequired("number")
	Cmd.AddCommand(setCmd, showCmd, setupCmd)
}

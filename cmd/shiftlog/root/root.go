package root

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/flarebyte/shiftlog/cmd/shiftlog/cache"
	"github.com/flarebyte/shiftlog/cmd/shiftlog/diagnose"
	"github.com/flarebyte/shiftlog/cmd/shiftlog/exports"
	"github.com/flarebyte/shiftlog/cmd/shiftlog/profile"
	"github.com/flarebyte/shiftlog/cmd/shiftlog/records"
	"github.com/flarebyte/shiftlog/cmd/shiftlog/serve"
	"github.com/flarebyte/shiftlog/cmd/shiftlog/version"
	"github.com/flarebyte/shiftlog/internal/app"
	"github.com/flarebyte/shiftlog/internal/config"
	"github.com/flarebyte/shiftlog/internal/log"
)

// NewRootCmd creates the root command for shiftlog.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "shiftlog",
		Short: "Offline-first shift-floor activity records",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help when no subcommand is provided.
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd, v)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "Path to config file (.cue, default "+config.DefaultPath+" when present)")
	pf.String("data-dir", "", "Data directory (overrides dataDir)")
	pf.String("log-level", "", "DEBUG, INFO, WARN or ERROR")
	for _, name := range []string{"config", "data-dir", "log-level"} {
		_ = v.BindPFlag(name, pf.Lookup(name))
	}
	v.SetEnvPrefix("SHIFTLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Subcommands
	cmd.AddCommand(version.VersionCmd)
	cmd.AddCommand(profile.Cmd)
	cmd.AddCommand(records.Cmd)
	cmd.AddCommand(exports.Cmd)
	cmd.AddCommand(cache.Cmd)
	cmd.AddCommand(serve.Cmd)
	cmd.AddCommand(diagnose.Cmd)

	return cmd
}

// setup resolves the configuration once per invocation: .env first, then
// the CUE file, then flag and SHIFTLOG_* overrides.
func setup(cmd *cobra.Command, v *viper.Viper) error {
	if err := godotenv.Load(); err != nil {
		log.GetLogger().WithError(err).Debug("no .env loaded")
	}
	if lvl := v.GetString("log-level"); lvl != "" {
		log.SetLevel(lvl)
	}
	path := v.GetString("config")
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return err
	}
	if dir := v.GetString("data-dir"); dir != "" {
		cfg.DataDir = dir
	}
	cmd.SetContext(app.WithConfig(cmd.Context(), cfg))
	return nil
}

// Execute runs the root command with provided args.
func Execute(args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

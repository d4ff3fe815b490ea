package cache

import (
	"github.com/spf13/cobra"

	"github.com/flarebyte/shiftlog/cmd/shiftlog/output"
	"github.com/flarebyte/shiftlog/internal/app"
	"github.com/flarebyte/shiftlog/internal/offline"
)

// Cmd implements `shiftlog cache`.
var Cmd = &cobra.Command{
	Use:           "cache",
	Short:         "Manage the offline app-shell cache",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func open(cmd *cobra.Command) (*offline.Cache, string, error) {
	a, err := app.FromContext(cmd.Context())
	if err != nil {
		return nil, "", err
	}
	c, err := a.Cache(nil)
	return c, a.Config.CacheDir(), err
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Fetch the app shell and make it the active cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := open(cmd)
		if err != nil {
			return err
		}
		if err := c.Install(cmd.Context()); err != nil {
			return err
		}
		return output.JSON(cmd.OutOrStdout(), map[string]any{"cache": c.ID(), "entries": len(c.Entries())})
	},
}

var evictCmd = &cobra.Command{
	Use:   "evict",
	Short: "Delete every cache other than the configured version",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := open(cmd)
		if err != nil {
			return err
		}
		evicted, err := c.EvictOthers()
		if err != nil {
			return err
		}
		if evicted == nil {
			evicted = []string{}
		}
		return output.JSON(cmd.OutOrStdout(), map[string]any{"cache": c.ID(), "evicted": evicted})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the installed cache and its entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, dir, err := open(cmd)
		if err != nil {
			return err
		}
		all, err := offline.Caches(dir)
		if err != nil {
			return err
		}
		entries := c.Entries()
		if entries == nil {
			entries = []offline.Entry{}
		}
		return output.JSON(cmd.OutOrStdout(), map[string]any{
			"cache":     c.ID(),
			"installed": c.Installed(),
			"entries":   entries,
			"caches":    all,
		})
	},
}

func init() {
	Cmd.AddCommand(installCmd, evictCmd, statusCmd)
}

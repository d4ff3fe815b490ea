package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flarebyte/shiftlog/internal/app"
)

var flagAddr string

// Cmd implements `shiftlog serve`.
var Cmd = &cobra.Command{
	Use:           "serve",
	Short:         "Run the device server with reminders",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.ConfigFrom(cmd.Context())
		if flagAddr != "" {
			cfg.Server.Addr = flagAddr
		}
		a, err := app.Open(cfg)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.Serve(ctx)
	},
}

func init() {
	Cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default server.addr)")
}

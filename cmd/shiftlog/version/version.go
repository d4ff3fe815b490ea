package version

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flarebyte/shiftlog/internal/buildinfo"
)

var (
	flagShort bool
	flagJSON  bool
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagShort || !flagJSON {
			_, err := fmt.Fprintf(os.Stdout, "shiftlog %s\n", buildinfo.Summary())
			return err
		}
		_, _ = fmt.Fprintf(os.Stderr, "shiftlog version: %s\n", buildinfo.Summary())
		return encodeJSON(os.Stdout, buildinfo.Current())
	},
}

func init() {
	VersionCmd.Flags().BoolVar(&flagShort, "short", false, "Print only the version string")
	VersionCmd.Flags().BoolVar(&flagJSON, "json", false, "Print detailed JSON version info")
}

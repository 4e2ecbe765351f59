package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"vfsbot/lib/browser"
	"vfsbot/lib/osutil"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Downloads the browser the config asks for.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		opts, err := cfg.Browser.Options()
		if err != nil {
			osutil.Fatal("invalid browser config", err)
		}
		if err := browser.Install(opts.Engine); err != nil {
			osutil.Fatal("failed to install the browser", err)
		}
		slog.Info("browser ready", "engine", string(opts.Engine))
	},
}

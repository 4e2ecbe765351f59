package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"vfsbot/lib/configutil"
	"vfsbot/lib/osutil"
	"vfsbot/lib/telemetry"

	// adapters register themselves for vfs.NewAdapter
	_ "vfsbot/lib/vfs/de"
	_ "vfsbot/lib/vfs/nl"
)

var configPath *string
var verbose *bool

func init() {
	configPath = rootCmd.PersistentFlags().StringP("config", "c", "config.json5", "The config file to use.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output.")
}

var rootCmd = &cobra.Command{
	Use:   "vfsbot",
	Short: "vfsbot watches VFS Global visa portals for open appointment slots.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := configutil.LoadDotenv(); err != nil {
			osutil.Fatal("failed to load .env", err)
		}
		telemetry.InitSlog(*verbose)
		if err := telemetry.SetupFromEnvOptional(cmd.Context(), "vfsbot"); err != nil {
			osutil.Fatal("failed to set up telemetry", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := telemetry.Shutdown(cmd.Context()); err != nil {
			slog.Warn("failed to flush telemetry", "err", err.Error())
		}
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

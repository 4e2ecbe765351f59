package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vfsbot/lib/osutil"
	"vfsbot/lib/telemetry"
	"vfsbot/lib/vfs"
	"vfsbot/services/watcher"
)

var watchSource *string
var watchDest *string
var watchParams *[]string
var watchInterval *string
var watchCron *string
var watchImmediate *bool
var watchStatusPort *int

func init() {
	watchSource = watchCmd.Flags().String("source", "", "The country code appointments are booked from, e.g. IE.")
	watchDest = watchCmd.Flags().String("dest", "", "The destination country code, e.g. NL.")
	watchParams = watchCmd.Flags().StringArray("param", nil, "An appointment parameter as key=value. Repeatable.")
	watchInterval = watchCmd.Flags().String("interval", "", "Time between checks, e.g. 30m. Overrides the config.")
	watchCron = watchCmd.Flags().String("cron", "", "A cron schedule for checks. Overrides the config.")
	watchImmediate = watchCmd.Flags().Bool("immediate", false, "Run the first check right away. Overrides the config.")
	watchStatusPort = watchCmd.Flags().Int("status-port", 0, "Port for the status api. Overrides the config.")
	watchCmd.MarkFlagRequired("source")
	watchCmd.MarkFlagRequired("dest")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch --source <country> --dest <country> [--param key=value]...",
	Short: "Checks for appointments on a schedule and notifies when slots appear.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		identity, err := vfs.NewIdentity(*watchSource, *watchDest)
		if err != nil {
			osutil.Fatal("invalid source/destination", err)
		}
		adapter, err := vfs.NewAdapter(identity)
		if err != nil {
			osutil.Fatal("unsupported destination", err)
		}
		provided, err := parseParams(*watchParams)
		if err != nil {
			osutil.Fatal("invalid --param", err)
		}
		// a daemon with no portal url would fail on every tick, refuse
		// to start instead
		if cfg.VfsUrl[identity.Key()] == "" {
			osutil.Fatal("no portal url configured",
				fmt.Errorf("set vfs_url[%q] in %s", identity.Key(), *configPath))
		}

		// collect the query once up front, ticks must never block on a
		// terminal
		collector := vfs.Collector{Input: vfs.NewStdinInput()}
		if hinter, ok := adapter.(vfs.ParamHinter); ok {
			collector.Hints = hinter.ParamHints()
		}
		query, err := collector.Collect(cmd.Context(), adapter.ParamKeys(), provided)
		if err != nil {
			osutil.Fatal("failed to collect appointment parameters", err)
		}

		opts, cleanup := botOptions(cfg, true)
		defer cleanup()
		opts.NotifyOnlyNew = true
		bot := vfs.NewBot(identity, adapter, opts)

		interval := parseInterval(cfg.Watch.Interval)
		if cmd.Flags().Changed("interval") {
			interval = parseInterval(*watchInterval)
		}
		cronSpec := cfg.Watch.Cron
		if cmd.Flags().Changed("cron") {
			cronSpec = *watchCron
		}
		immediate := cfg.Watch.Immediate
		if cmd.Flags().Changed("immediate") {
			immediate = *watchImmediate
		}
		statusPort := cfg.Watch.StatusPort
		if cmd.Flags().Changed("status-port") {
			statusPort = *watchStatusPort
		}

		telemetry.InstrumentPerfStats(cmd.Context())

		service, err := watcher.NewService(bot, watcher.Options{
			Identity:   identity.Key(),
			URL:        cfg.VfsUrl[identity.Key()],
			Query:      query,
			Interval:   interval,
			CronSpec:   cronSpec,
			Immediate:  immediate,
			StatusPort: statusPort,
		})
		if err != nil {
			osutil.Fatal("failed to build the watcher", err)
		}
		if err := service.Start(cmd.Context()); err != nil {
			osutil.Fatal("watcher stopped", err)
		}
	},
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	interval, err := time.ParseDuration(raw)
	if err != nil {
		osutil.Fatal("invalid watch interval", err)
	}
	return interval
}

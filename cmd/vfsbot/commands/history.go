package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"vfsbot/cmd/vfsbot/utils"
	"vfsbot/lib/osutil"
	"vfsbot/lib/runstore"
)

var historyLimit *int

func init() {
	historyLimit = historyCmd.Flags().Int("limit", 20, "The maximum amount of runs to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit <n>]",
	Short: "Shows recent runs from the history database.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if cfg.History.Database == "" {
			osutil.Fatal("no history database configured",
				fmt.Errorf("set history.database in %s", *configPath))
		}

		db, err := runstore.OpenDB(cfg.History.Database)
		if err != nil {
			osutil.Fatal("failed to open the run history db", err)
		}
		defer db.Close()

		store := runstore.NewStore(db)
		runs, err := store.Recent(cmd.Context(), *historyLimit)
		if err != nil {
			osutil.Fatal("failed to read run history", err)
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Time", "Identity", "Outcome", "Dates", "Duration"})
		for _, run := range runs {
			t.AppendRow(table.Row{
				run.Time.Format(time.DateTime),
				run.Identity,
				run.Outcome,
				strings.Join(run.Dates, ", "),
				run.Duration.Round(time.Second).String(),
			})
		}
		t.Render()
	},
}

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vfsbot/lib/osutil"
	"vfsbot/lib/vfs"
)

var checkSource *string
var checkDest *string
var checkParams *[]string
var checkNoInput *bool

func init() {
	checkSource = checkCmd.Flags().String("source", "", "The country code appointments are booked from, e.g. IE.")
	checkDest = checkCmd.Flags().String("dest", "", "The destination country code, e.g. NL.")
	checkParams = checkCmd.Flags().StringArray("param", nil, "An appointment parameter as key=value, e.g. visa_center=Dublin. Repeatable.")
	checkNoInput = checkCmd.Flags().Bool("no-input", false, "Fail on missing parameters instead of prompting.")
	checkCmd.MarkFlagRequired("source")
	checkCmd.MarkFlagRequired("dest")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check --source <country> --dest <country> [--param key=value]...",
	Short: "Runs one appointment check and reports what it found.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		identity, err := vfs.NewIdentity(*checkSource, *checkDest)
		if err != nil {
			osutil.Fatal("invalid source/destination", err)
		}
		adapter, err := vfs.NewAdapter(identity)
		if err != nil {
			osutil.Fatal(fmt.Sprintf("supported destinations are %v", vfs.Supported()), err)
		}
		provided, err := parseParams(*checkParams)
		if err != nil {
			osutil.Fatal("invalid --param", err)
		}

		opts, cleanup := botOptions(cfg, *checkNoInput)
		defer cleanup()
		bot := vfs.NewBot(identity, adapter, opts)

		result, err := bot.Execute(cmd.Context(), provided)
		if err != nil {
			osutil.Fatal("appointment check failed", err)
		}

		switch result.Outcome {
		case vfs.OutcomeFound:
			fmt.Println("Appointments available:")
			for _, date := range result.Dates {
				fmt.Println("  " + date)
			}
		case vfs.OutcomeNoSlots:
			fmt.Println("No appointments available.")
		case vfs.OutcomeCheckFailed:
			fmt.Println("The availability check did not complete, see the log for details.")
			os.Exit(1)
		}
	},
}

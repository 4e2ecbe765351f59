package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"vfsbot/lib/notify"
	"vfsbot/lib/osutil"
)

func init() {
	channelsCmd.AddCommand(channelsListCmd)
	channelsCmd.AddCommand(channelsTestCmd)
	rootCmd.AddCommand(channelsCmd)
}

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Inspect and test the configured notification channels.",
}

var channelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the notification channels the config enables.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		clients, err := notify.NewClients(cfg.Notification)
		if err != nil {
			osutil.Fatal("invalid notification config", err)
		}
		if len(clients) == 0 {
			fmt.Println("No notification channels configured.")
			return
		}
		for _, client := range clients {
			fmt.Println(client.Name())
		}
	},
}

var channelsTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Sends a test message over every configured channel.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		clients, err := notify.NewClients(cfg.Notification)
		if err != nil {
			osutil.Fatal("invalid notification config", err)
		}

		dispatcher := notify.Dispatcher{Clients: clients}
		err = dispatcher.Dispatch(cmd.Context(), "This is a test notification from vfsbot.")
		if err != nil {
			osutil.Fatal("some channels failed", err)
		}
		slog.Info("test notification dispatched", "channels", len(clients))
	},
}

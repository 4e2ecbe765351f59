package commands

import (
	"fmt"
	"strings"

	"vfsbot/lib/browser"
	"vfsbot/lib/configutil"
	"vfsbot/lib/notify"
	"vfsbot/lib/osutil"
	"vfsbot/lib/runstore"
	"vfsbot/lib/vfs"
)

// Config is the shape of config.json5.
type Config struct {
	Browser       browser.Config    `json:"browser"`
	VfsUrl        map[string]string `json:"vfs_url"`
	VfsCredential CredentialConfig  `json:"vfs_credential"`
	Notification  notify.Config     `json:"notification"`
	History       HistoryConfig     `json:"history"`
	Watch         WatchConfig       `json:"watch"`
}

type CredentialConfig struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type HistoryConfig struct {
	// Database is a file path or libsql url. Empty disables run history.
	Database string `json:"database"`
}

type WatchConfig struct {
	// Interval between checks as a duration string, e.g. "30m".
	Interval string `json:"interval"`
	// Cron schedules checks by cron expression instead of Interval.
	Cron string `json:"cron"`
	// Immediate runs the first check at startup.
	Immediate bool `json:"immediate"`
	// StatusPort serves /healthz and /status when non-zero.
	StatusPort int `json:"status_port"`
}

func loadConfig() Config {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil {
		osutil.Fatal("failed to read config", err)
	}
	return cfg
}

// botOptions wires bot dependencies from the config. The returned cleanup
// closes the history database.
func botOptions(cfg Config, noInput bool) (vfs.BotOptions, func()) {
	browserOpts, err := cfg.Browser.Options()
	if err != nil {
		osutil.Fatal("invalid browser config", err)
	}

	clients, err := notify.NewClients(cfg.Notification)
	if err != nil {
		osutil.Fatal("invalid notification config", err)
	}

	opts := vfs.BotOptions{
		Browser:     browserOpts,
		URLs:        cfg.VfsUrl,
		Credentials: vfs.Credentials(cfg.VfsCredential),
		Dispatcher:  notify.Dispatcher{Clients: clients},
	}
	if noInput {
		opts.Collector = &vfs.Collector{Input: vfs.NoInput{}}
	}

	cleanup := func() {}
	if cfg.History.Database != "" {
		db, err := runstore.OpenDB(cfg.History.Database)
		if err != nil {
			osutil.Fatal("failed to open the run history db", err)
		}
		store := runstore.NewStore(db)
		opts.Store = &store
		cleanup = func() { db.Close() }
	}

	return opts, cleanup
}

func parseParams(pairs []string) (map[string]string, error) {
	params := map[string]string{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		params[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return params, nil
}

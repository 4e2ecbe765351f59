package telemetry

import (
	"context"
	"log/slog"
	"os"
	"vfsbot/lib/configutil"
)

var setupTestEnvironments = map[string]bool{}

// sets up telemetry in a testing environment, ensuring that it isn't
// set up more than once. a missing telemetry.json5 is not an error:
// tests then run against the default no-op providers.
func SetupForTesting(serviceName string) func() {
	if setupTestEnvironments[serviceName] {
		return func() {}
	}
	setupTestEnvironments[serviceName] = true

	InitSlog(true)
	err := SetupFromEnv(context.Background(), serviceName)
	if os.IsNotExist(err) {
		return func() {}
	}
	if err != nil {
		panic(err)
	}

	return func() {
		err = Shutdown(context.Background())
		if err != nil {
			panic(err)
		}
	}
}

// searches up the filesystem from the cwd to find a file
// called telemetry.json5, once found it will then use it
// as a config to setup telemetry
func SetupFromEnv(ctx context.Context, serviceName string) error {
	config, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if err != nil {
		return err
	}
	return Setup(ctx, serviceName, config)
}

// SetupFromEnvOptional behaves like SetupFromEnv but treats a missing
// telemetry.json5 as "no telemetry configured" rather than a failure.
func SetupFromEnvOptional(ctx context.Context, serviceName string) error {
	err := SetupFromEnv(ctx, serviceName)
	if os.IsNotExist(err) {
		slog.DebugContext(ctx, "no telemetry.json5 found, otlp export disabled")
		return nil
	}
	return err
}

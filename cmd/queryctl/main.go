// cmd/queryctl/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/AI-Template-SDK/senso-query-engine/internal/app"
	"github.com/AI-Template-SDK/senso-query-engine/internal/config"
	"github.com/AI-Template-SDK/senso-query-engine/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	inMemory bool
	logLevel string

	// loadConfig is swapped out by tests.
	loadConfig = config.Load
)

func main() {
	if err := godotenv.Load(); err != nil {
		_ = godotenv.Load("dev.env")
	}

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "queryctl",
		Short: "Dispatch prompts to AI answer engines and inspect the results",
		Long: `queryctl runs the query engine from the command line.

Without a configured database it keeps everything in memory, which is useful
for trying prompts and templates against the live backends.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&inMemory, "memory", false, "use the in-memory store even if a database is configured")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		newQueryCmd(),
		newBatchCmd(),
		newPlatformsCmd(),
		newHistoryCmd(),
		newSchemaCmd(),
	)
	return root
}

// withApp builds the service graph for one command invocation.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg := loadConfig()
	log := logger.NewStructured(logLevel, cfg.LogFormat)

	a, err := app.Build(ctx, cfg, log, app.Options{InMemory: inMemory})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

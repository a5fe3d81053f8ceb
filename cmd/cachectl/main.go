package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/tandem/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cachectl",
	Short: "Inspect and maintain a tandem disk cache directory",
	Long: `cachectl is an operator tool for a tandem cache directory on disk.

It opens the manifest and data directory directly, the same way a
process embedding pkg/diskcache would, and reports or trims what it
finds. It does not start a server and does not talk to a running
process — run it against a directory that is not concurrently open
elsewhere.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("cachectl version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("path", "", "Cache root directory (required)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Optional YAML file of default engine options")
	_ = rootCmd.MarkPersistentFlagRequired("path")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(trimCmd)
	rootCmd.AddCommand(gcCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{
		Level:      log.Level(level),
		JSONOutput: jsonOut,
		Output:     os.Stdout,
	})
}

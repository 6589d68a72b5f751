package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/colabbrave/minuteforge/internal/config"
	"github.com/colabbrave/minuteforge/internal/logger"
)

var (
	cfgPath     string
	verboseFlag bool

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "minuteforge",
	Short: "Iterative meeting-minutes optimization",
	Long: `minuteforge turns raw meeting transcripts into professional minutes
by iterating over prompt strategies: generate, score, critique, adjust,
until the quality threshold is reached or improvement stalls.

Long transcripts are semantically segmented, processed per segment, and
merged before the optimization loop begins.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(verboseFlag)

		// The default path is optional; a path the user passed
		// explicitly must exist.
		load := config.Load
		if cmd.Flags().Changed("config") {
			load = config.LoadFile
		}

		var err error
		cfg, err = load(cfgPath)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "minuteforge.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

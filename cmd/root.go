package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"interview-copilot/internal/logging"
)

var (
	verbose    bool
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "interview-copilot",
	Short: "Live interview answer server with cached replay",
	Long: `interview-copilot runs a live interview assistant: it receives
transcribed questions over a websocket, answers them in the candidate's
persona through an LLM backend, and broadcasts the answer to every
connected display in the room.

Answers are cached: a repeated question is replayed from the cache
instead of invoking the backend again.

Quick start:
  interview-copilot serve                 # start the server
  interview-copilot overlay               # attach a terminal display
  interview-copilot faq stats             # inspect the answer cache`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
}

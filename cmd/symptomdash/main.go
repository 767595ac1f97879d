// symptomdash serves the disease-prediction dashboard and exposes its
// pieces on the command line.
//
// Usage:
//
//	symptomdash serve
//	symptomdash predict --symptom fever --symptom cough
//	symptomdash inspect --rows 10
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Prabal729/disease-2/internal/config"
	"github.com/Prabal729/disease-2/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "symptomdash",
	Short: "Symptom-based disease prediction dashboard",
	Long:  "symptomdash loads a trained classifier and its symptom features,\nserves predictions and dataset analytics over HTTP, and logs every prediction.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

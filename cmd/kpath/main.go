// Command kpath distributes a traffic matrix over k paths per pair of nodes
// so as to minimize the load of the most loaded link.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootFlags struct {
	logLevel string
	logJSON  bool
}

var rootCmd = &cobra.Command{
	Use:   "kpath",
	Short: "k-shortest-path traffic engineering",
	Long: `'kpath' routes a traffic matrix over a topology using at most k loop-free
paths per pair of nodes. Candidate paths are enumerated with Eppstein's
algorithm and selected so as to minimize the maximum link load.`,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "warn",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.logJSON, "log-json", false,
		"Log in JSON format")
}

// newLogger returns a logger writing to stderr at the configured level.
func newLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(rootFlags.logLevel)
	if err != nil {
		return nil, errors.Wrap(err, "invalid log level")
	}
	cfg := zap.NewDevelopmentConfig()
	if rootFlags.logJSON {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = level
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

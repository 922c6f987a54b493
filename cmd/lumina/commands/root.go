// Package commands defines the lumina CLI: the body and eyes units plus a
// small operator utility for poking a running body over UDP.
package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "lumina",
	Short:         "Lumina animatronic companion control core",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

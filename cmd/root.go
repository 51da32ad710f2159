package cmd

import (
	"fmt"
	"os"

	"songlib/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "songlib",
	Short: "Song Library Service",
	Long: `Song Library keeps a filesystem tree of folk song scores in sync
with a catalog database and serves typeset renderings over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with debug level so CLI users get readable
		// ISO8601 output instead of production epoch timestamps.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

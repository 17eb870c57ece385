package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/dbchat/cmd/dbchat/cmds"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "dbchat",
	Short: "dbchat reduces agent event streams into queryable conversation state",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger()
	},
}

func initLogger() {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(cmds.NewReplayCommand())
	rootCmd.AddCommand(cmds.NewExportCommand())
	rootCmd.AddCommand(cmds.NewSearchCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

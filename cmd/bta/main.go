package main

import (
	"fmt"
	"os"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/spf13/cobra"
	"github.com/zmcdonald6/bta2.0/server/config"
)

// version is set at build time via -ldflags.
var version = "unknown"

func main() {
	rootCmd := createRootCmd()

	configManager := config.NewManager(rootCmd)

	rootCmd.AddCommand(createPrepareCmd(configManager))
	rootCmd.AddCommand(createConfigDumpCmd(configManager))
	rootCmd.AddCommand(createVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func createRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bta",
		Short: "bta is the budget tracker application server",
		Long: `
bta is the budget tracker application server

To start using bta, use one of the available commands.
`,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a configuration file")

	return rootCmd
}

func createVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bta version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("bta " + version)
		},
	}
}

// initLogger builds the process logger from the logging configuration.
func initLogger(conf config.BudgetConfig) kitlog.Logger {
	var logger kitlog.Logger
	if conf.Logging.JSON {
		logger = kitlog.NewJSONLogger(os.Stderr)
	} else {
		logger = kitlog.NewLogfmtLogger(os.Stderr)
	}
	if conf.Logging.Debug {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	return kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
}

// initFatal prints an error and exits with a nonzero status.
func initFatal(err error, message string) {
	fmt.Printf("Error %s: %v\n", message, err)
	os.Exit(1)
}

// Package main provides the larder CLI: uniform CRUD operations over
// the models declared in config.yaml.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// version is the CLI version string.
const version = "0.1.0"

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
}

var flags rootFlags

// logger is configured in setupLogging before any subcommand runs.
var logger = zerolog.Nop()

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
}

// newRootCmd creates the top-level "larder" command with global flags
// and all subcommands registered.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "larder",
		Short: "A schema-agnostic CRUD engine for registered models",
		Long: `Larder stores records for any registered model through one uniform
surface: create, get, list, update, delete, and count, with filtering,
sorting, pagination, and soft-delete semantics.`,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: ./.larder-db)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newCreateCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newUpdateCmd())
	root.AddCommand(newDeleteCmd())
	root.AddCommand(newCountCmd())

	return root
}

// setupLogging configures the process logger. Human runs get a console
// writer on stderr; --json keeps stderr machine-readable.
func setupLogging() {
	level := zerolog.WarnLevel
	if flags.verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	if flags.jsonMode {
		logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
		return
	}
	logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// exitError prints the error to stderr and exits with the given code.
func exitError(code int, err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(code)
}

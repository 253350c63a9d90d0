// Init command for the larder CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize larder storage",
		Long: `Init writes a default configuration file if none exists, opens the
backend to create the data directory and database, and registers the
configured models so their tables exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// buildEngine resolves config dir (flag > env > default),
			// writes the default config.yaml, attaches the backend,
			// and registers every configured model.
			eng, cleanup, err := buildEngine()
			if err != nil {
				exitError(exitSysError, err)
			}
			defer cleanup()

			_, cfg, err := resolveConfig()
			if err != nil {
				exitError(exitSysError, err)
			}

			fmt.Println("Larder initialized successfully")
			fmt.Println("  data:  ", cfg.DataDir)
			fmt.Println("  models:", eng.Models())
			return nil
		},
	}
}

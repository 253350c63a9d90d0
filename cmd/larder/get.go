// Get command retrieves the current version of a record.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func newGetCmd() *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "get <model> <id>",
		Short: "Get a record by ID",
		Long: `Get retrieves the current version of a record by its logical ID.
For versioned models this is the newest non-deleted version.

Example:
  larder get notes 0198a7c2-7e41-7c3a-9f1e-2b6d4c8e0a11
  larder get notes --workspace team-a 0198a7c2-7e41-7c3a-9f1e-2b6d4c8e0a11`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cleanup, err := buildEngine()
			if err != nil {
				exitError(exitSysError, err)
			}
			defer cleanup()

			model, id := args[0], args[1]
			rec, err := eng.Get(cmd.Context(), model, workspace, id)
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					return fmt.Errorf("record %q not found in model %q", id, model)
				}
				return err
			}
			return printResult(rec)
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace scope")
	return cmd
}

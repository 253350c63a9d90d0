// Delete command soft-deletes a record.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func newDeleteCmd() *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "delete <model> <id>",
		Short: "Soft-delete a record",
		Long: `Delete marks the current version of a record as deleted. The row
stays in storage and can still be listed with deleted=true. Deleting
an already-deleted record fails with not found.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cleanup, err := buildEngine()
			if err != nil {
				exitError(exitSysError, err)
			}
			defer cleanup()

			model, id := args[0], args[1]
			if err := eng.Delete(cmd.Context(), model, workspace, id); err != nil {
				if errors.Is(err, types.ErrNotFound) {
					return fmt.Errorf("record %q not found in model %q", id, model)
				}
				return err
			}
			fmt.Printf("deleted %s/%s\n", model, id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace scope")
	return cmd
}

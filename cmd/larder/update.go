// Update command patches the current version of a record.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func newUpdateCmd() *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "update <model> <id> <patch-json>",
		Short: "Update a record",
		Long: `Update applies a JSON patch to the current version of a record.
Patch fields merge into the existing data document; an empty "name"
keeps the current name. For versioned models the update appends a new
version and leaves prior versions untouched.

Example:
  larder update notes 0198a7c2-... '{"data":{"pinned":true}}'`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cleanup, err := buildEngine()
			if err != nil {
				exitError(exitSysError, err)
			}
			defer cleanup()

			model, id := args[0], args[1]
			patch, err := parsePayload(args[2])
			if err != nil {
				return err
			}
			rec, err := eng.Update(cmd.Context(), model, workspace, id, patch)
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

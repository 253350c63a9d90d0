// Create command for the larder CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <model> <payload-json> [payload-json...]",
		Short: "Create one or more records",
		Long: `Create inserts new records for a registered model. Each payload is a
JSON document with "name", optional "workspace_id", and optional "data".
Multiple payloads insert as one all-or-nothing batch.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cleanup, err := buildEngine()
			if err != nil {
				exitError(exitSysError, err)
			}
			defer cleanup()

			model := args[0]
			if len(args) == 2 {
				payload, err := parsePayload(args[1])
				if err != nil {
					return err
				}
				rec, err := eng.Create(cmd.Context(), model, payload)
				if err != nil {
					return err
				}
				return printResult(rec)
			}

			payloads := make([]types.Payload, 0, len(args)-1)
			for _, raw := range args[1:] {
				p, err := parsePayload(raw)
				if err != nil {
					return err
				}
				payloads = append(payloads, p)
			}
			recs, err := eng.BulkCreate(cmd.Context(), model, payloads)
			if err != nil {
				return err
			}
			return printResult(recs)
		},
	}
	return cmd
}

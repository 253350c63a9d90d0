// Count command reports how many records match filters.
package main

import (
	"github.com/spf13/cobra"
)

func newCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count <model> [key=value...]",
		Short: "Count records matching filters",
		Long: `Count returns the number of records matching the given filters,
ignoring page and limit. For versioned models each logical record
counts once regardless of how many versions it has.

Example:
  larder count notes pinned=true`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cleanup, err := buildEngine()
			if err != nil {
				exitError(exitSysError, err)
			}
			defer cleanup()

			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}
			result, err := eng.Count(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			if result.Degraded {
				logger.Warn().Str("model", args[0]).Msg("count degraded, returning zero")
			}
			return printResult(result)
		},
	}
	return cmd
}

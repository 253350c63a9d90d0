// List command queries records with filter parameters.
package main

import (
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <model> [key=value...]",
		Short: "List records matching filters",
		Long: `List returns a page of records matching the given filters.

Filter keys name a field, optionally with an operator suffix:
_ne, _lt, _lte, _gt, _gte, _in, _prefix, _suffix, _substr.
Reserved keys page, limit, sort, select, and deleted control the page
window, ordering, projection, and soft-delete visibility.

Example:
  larder list notes pinned=true sort=desc_updated_at limit=10
  larder list notes name_prefix=draft page=2`,
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
			result, err := eng.List(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			if result.Degraded {
				logger.Warn().Str("model", args[0]).Msg("list degraded, returning empty page")
			}
			return printResult(result)
		},
	}
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brianfmorissette/chatgpt-champion/internal/adapters/source"
	"github.com/brianfmorissette/chatgpt-champion/pkg/logger"
)

func newImportCommand(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <sqlite-file>",
		Short: "Copy the records of --file into a sqlite table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := o.source()
			if err != nil {
				return err
			}
			records, err := src.Load(ctx)
			if err != nil {
				return err
			}
			if err := source.Import(ctx, args[0], o.Table, records); err != nil {
				return err
			}
			logger.Get().Info(ctx, "imported records",
				logger.String("from", src.String()),
				logger.String("to", args[0]),
				logger.Int("records", len(records)),
			)
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("imported %d records into %s#%s", len(records), args[0], o.Table)))
			return nil
		},
	}
}

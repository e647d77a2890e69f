package commands

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newTablesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Inspect the normalization tables",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate a tables file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tb, err := a.loadTables()
			if err != nil {
				return err
			}
			info := tb.Info()
			fmt.Fprintf(cmd.OutOrStdout(), "%s tables version %d: %d brands, %d tannages, %d color groups, %d weight rows, current bundle %q\n",
				color.GreenString("ok"), info.Version, len(info.Brands), info.Tannages, info.Colors, info.WeightRows, info.CurrentBundle.Name)
			return nil
		},
	}, &cobra.Command{
		Use:   "show",
		Short: "Print a summary of the active tables as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tb, err := a.loadTables()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tb.Info())
		},
	})
	return cmd
}

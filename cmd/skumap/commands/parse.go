package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"sku-recon/internal/reconcile/service"
)

func newParseCmd(a *app) *cobra.Command {
	var catalog bool
	cmd := &cobra.Command{
		Use:   "parse PRODUCT [VARIANT]",
		Short: "Print the attributes parsed from one product/variant pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tb, err := a.loadTables()
			if err != nil {
				return fmt.Errorf("load tables: %w", err)
			}
			p := service.NewParser(tb)
			var variant string
			if len(args) == 2 {
				variant = args[1]
			}
			attrs := p.Parse(args[0], variant)
			if catalog {
				attrs = p.ParseCatalogName(args[0])
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(attrs)
		},
	}
	cmd.Flags().BoolVar(&catalog, "catalog", false, "parse PRODUCT as a catalog item name")
	return cmd
}

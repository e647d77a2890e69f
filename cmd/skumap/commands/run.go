package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"sku-recon/internal/fileio"
	"sku-recon/internal/reconcile/model"
	"sku-recon/internal/reconcile/service"
)

type runOptions struct {
	orders, catalog  string
	ordersHeaderRow  int
	catalogHeaderRow int
	mapping          fileio.OrderMapping
	itemCol          string
	out              string
	format           string
	workers          int
	aggregate        bool
	showReview       bool
	quiet            bool
}

func newRunCmd(a *app) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Map an order export onto a catalog export",
		Example: `  skumap run --orders orders_export.csv --catalog item_list.xlsx --out mapping.xlsx
  skumap run --orders orders.csv --catalog items.csv --format json --show-review`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("workers") {
				o.workers = a.cfg.Workers
			}
			return runMapping(cmd, a, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.orders, "orders", "", "order export (.csv, .xlsx, .xls)")
	f.StringVar(&o.catalog, "catalog", "", "catalog item list (.csv, .xlsx, .xls)")
	f.IntVar(&o.ordersHeaderRow, "orders-header-row", 1, "1-based header row of the order export")
	f.IntVar(&o.catalogHeaderRow, "catalog-header-row", 1, "1-based header row of the catalog export")
	f.StringVar(&o.mapping.Product, "product-col", "", "product column, a|b alternatives")
	f.StringVar(&o.mapping.Variant, "variant-col", "", "variant column")
	f.StringVar(&o.mapping.Sku, "sku-col", "", "sku column")
	f.StringVar(&o.mapping.Qty, "qty-col", "", "quantity column")
	f.StringVar(&o.itemCol, "item-col", "", "catalog item name column")
	f.StringVarP(&o.out, "out", "o", "", "output file (default stdout)")
	f.StringVarP(&o.format, "format", "f", "", "csv, xlsx or json (default from --out extension, else csv)")
	f.IntVarP(&o.workers, "workers", "w", 0, "parallel workers, 0 for one per CPU")
	f.BoolVar(&o.aggregate, "aggregate", false, "merge duplicate order lines before matching")
	f.BoolVar(&o.showReview, "show-review", false, "list lines that need review")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "no progress bar or summary")
	_ = cmd.MarkFlagRequired("orders")
	_ = cmd.MarkFlagRequired("catalog")
	return cmd
}

func runMapping(cmd *cobra.Command, a *app, o *runOptions) error {
	format, err := outputFormat(o.format, o.out)
	if err != nil {
		return err
	}
	tb, err := a.loadTables()
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}

	orderRows, err := readFile(o.orders, o.ordersHeaderRow)
	if err != nil {
		return err
	}
	catalogRows, err := readFile(o.catalog, o.catalogHeaderRow)
	if err != nil {
		return err
	}
	items := fileio.ReadOrderItems(orderRows, o.mapping)
	if len(items) == 0 {
		return fmt.Errorf("%s: no order lines found, check --product-col", o.orders)
	}
	names := fileio.ReadCatalog(catalogRows, o.itemCol)
	if len(names) == 0 {
		return fmt.Errorf("%s: no catalog items found, check --item-col", o.catalog)
	}

	idx := service.BuildIndex(names, service.NewParser(tb))
	a.logger.Debug().Interface("catalog", idx.Stats()).Msg("catalog indexed")

	stderr := cmd.ErrOrStderr()
	opts := []service.Option{
		service.WithWorkers(o.workers),
		service.WithAggregate(o.aggregate),
		service.WithLogger(a.logger),
	}
	var bar *progressbar.ProgressBar
	if !o.quiet {
		bar = newProgressBar(stderr, len(items))
		opts = append(opts, service.WithProgress(func() { _ = bar.Add(1) }))
	}
	res := service.NewReconciler(tb, idx, opts...).Run(items)
	if bar != nil {
		_ = bar.Finish()
	}

	if err := writeOutput(cmd.OutOrStdout(), o.out, format, res); err != nil {
		return err
	}
	if !o.quiet {
		printSummary(stderr, res, o.showReview)
	}
	return nil
}

func outputFormat(format, out string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		switch strings.ToLower(filepath.Ext(out)) {
		case ".xlsx":
			format = "xlsx"
		case ".json":
			format = "json"
		default:
			format = "csv"
		}
	}
	switch format {
	case "csv", "xlsx", "json":
		return format, nil
	}
	return "", fmt.Errorf("unknown format %q: want csv, xlsx or json", format)
}

func readFile(path string, headerRow int) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := fileio.ReadAnyMaps(f, path, headerRow)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func writeOutput(stdout io.Writer, path, format string, res model.Result) (err error) {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}
	rows := model.Rows(res.Rows)
	switch format {
	case "xlsx":
		return fileio.WriteMappingXLSX(w, rows, res.Stats)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	default:
		return fileio.WriteMappingCSV(w, rows)
	}
}

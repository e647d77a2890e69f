package commands

import (
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sku-recon/internal/config"
	"sku-recon/internal/reconcile/tables"
)

// app carries what the subcommands share once flags are parsed.
type app struct {
	cfg        config.Config
	logger     zerolog.Logger
	tablesFile string
	logLevel   string
	logFile    string
	noColor    bool
}

func (a *app) loadTables() (*tables.Tables, error) {
	cfg := a.cfg
	if a.tablesFile != "" {
		cfg.TablesFile = a.tablesFile
	}
	return cfg.LoadTables()
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "skumap",
		Short: "Map storefront order lines onto accounting catalog items",
		Long: `skumap reads a storefront order export and an accounting item list and
maps every order line to the catalog item it should be billed as. Lines that
cannot be placed fall back to the miscellaneous item and are flagged for review.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()
			a.cfg.LogFile = a.logFile
			if a.logLevel != "" {
				a.cfg.LogLevel = a.logLevel
			}
			a.logger = config.SetupLogger(a.cfg)
			if a.noColor {
				color.NoColor = true
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.tablesFile, "tables", "", "normalization tables file (default: built-in, or TABLES_FILE)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "also write JSON logs to this file")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newRunCmd(a), newParseCmd(a), newTablesCmd(a))
	return root
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

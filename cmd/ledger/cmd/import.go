package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"commute-ledger/cmd/ledger/config"
	"commute-ledger/internal/etcparser"
	"commute-ledger/internal/merger"
	"commute-ledger/internal/report"
	"commute-ledger/pkg/errors"
)

// Flags for the import command
var (
	importFinalized    bool
	importDryRun       bool
	importOutputFormat string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import an ETC usage inquiry CSV export",
	Long: `Import parses a CSV/TSV export downloaded from the ETC usage inquiry
service and merges the toll records into the store.

Both export families are handled: comma-separated files with textual dates
(usually Shift-JIS encoded) and tab-separated spreadsheet re-exports with
serial day counts. Re-importing a file is safe; records already stored are
skipped, and tentative records are upgraded in place when the export
carries their settled charges.

Examples:
  ledger import meisai.csv
  ledger import meisai_settled.csv --finalized
  ledger import meisai.csv --dry-run --output-format json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateImportFlags,
	RunE:    runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importFinalized, "finalized", false, "import the batch with settled (finalized) charges")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "report what would change without writing the store")
	importCmd.Flags().StringVarP(&importOutputFormat, "output-format", "f", "console", "output format: console, json")
}

func validateImportFlags(cmd *cobra.Command, args []string) error {
	info, err := os.Stat(args[0])
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", args[0])
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", args[0], err)
	}
	if info.IsDir() {
		return fmt.Errorf("expected a file, got a directory: %s", args[0])
	}

	if !report.OutputFormat(importOutputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json", importOutputFormat)
	}

	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	if err := doImport(args[0]); err != nil {
		os.Exit(NewCLIErrorHandler().HandleError(err))
	}
	return nil
}

func doImport(file string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		code := errors.CodeFileNotFound
		if os.IsPermission(err) {
			code = errors.CodeFilePermission
		}
		return errors.FileError(code, file, err)
	}

	parser := etcparser.NewParser(config.CreateParserConfig(importFinalized))
	records, stats, err := parser.ParseBytes(content)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := merger.NewService(st).Import(records, importDryRun)
	if err != nil {
		return err
	}

	reportConfig, err := config.CreateReportConfig(importOutputFormat, viper.GetBool("verbose"))
	if err != nil {
		return err
	}
	generator, err := report.NewGenerator(reportConfig)
	if err != nil {
		return err
	}

	return generator.WriteImportReport(os.Stdout, &report.ImportReport{
		File:    file,
		DryRun:  importDryRun,
		Stats:   stats,
		Summary: etcparser.Summarize(records),
		Merge:   result,
	})
}

// Command sheetdash runs the dashboard pipeline against a local workbook:
// list sheets, show the cascading filter options, export the filtered CSV
// and render the quick chart.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetdash/internal/logging"
	"github.com/JonMunkholm/sheetdash/internal/table"
	"github.com/JonMunkholm/sheetdash/internal/workbook"
)

// queryFlags are the sheet and filter flags shared by the pipeline commands.
type queryFlags struct {
	sheet     string
	campaigns []string
	processes []string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.sheet, "sheet", "s", "", "Sheet (company) name (default: first sheet)")
	cmd.Flags().StringSliceVarP(&f.campaigns, "campaign", "c", nil, "Campaign filter, repeatable (default: All)")
	cmd.Flags().StringSliceVarP(&f.processes, "process", "p", nil, "Process filter, repeatable (default: All)")
}

func (f *queryFlags) query() table.Query {
	return table.Query{
		Campaign: table.Select(f.campaigns...),
		Process:  table.Select(f.processes...),
	}
}

// apply opens path and runs the pipeline on the selected sheet. A sheet
// without the filter columns is an error here: every command needs them.
func (f *queryFlags) apply(path string) (*table.View, error) {
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}
	raw, err := wb.Sheet(f.sheet)
	if err != nil {
		return nil, err
	}
	return table.Apply(raw, f.query())
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "sheetdash",
		Short:         "Filter, export and chart campaign/process workbooks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logLevel, "text")
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(newSheetsCmd())
	root.AddCommand(newOptionsCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newChartCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetdash/internal/chart"
	"github.com/JonMunkholm/sheetdash/internal/table"
	"github.com/JonMunkholm/sheetdash/internal/workbook"
)

func newSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <workbook>",
		Short: "List the sheets of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := workbook.Open(args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SHEET\tROWS\tCOLUMNS\tFILTERABLE")
			for _, name := range wb.SheetNames() {
				raw, err := wb.Sheet(name)
				if err != nil {
					return err
				}
				s := table.Normalize(raw)
				filterable := "yes"
				if table.CheckColumns(s) != nil {
					filterable = "no"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", name, humanize.Comma(int64(s.Len())), s.Width(), filterable)
			}
			return tw.Flush()
		},
	}
}

func newOptionsCmd() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "options <workbook>",
		Short: "Show campaign options and the process options they allow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := f.apply(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Campaigns: %s\n", strings.Join(v.CampaignOptions, ", "))
			fmt.Fprintf(out, "Processes: %s\n", strings.Join(v.ProcessOptions, ", "))
			fmt.Fprintf(out, "Rows:      %s\n", humanize.Comma(int64(v.Filtered.Len())))
			if len(v.NumericColumns) > 0 {
				fmt.Fprintf(out, "Numeric:   %s\n", strings.Join(v.NumericColumns, ", "))
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		f      queryFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "export <workbook>",
		Short: "Write the filtered rows as CSV with repeated campaigns blanked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := f.apply(args[0])
			if err != nil {
				return err
			}
			data, err := v.Export()
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if output == "" {
				output = table.ExportFileName(v.Sheet.Name)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d rows, %s)\n",
				output, v.Filtered.Len(), humanize.Bytes(uint64(len(data))))
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file, "-" for stdout (default: <company>_export.csv)`)
	return cmd
}

func newChartCmd() *cobra.Command {
	var (
		f      queryFlags
		column string
		output string
		width  int
		height int
	)
	cmd := &cobra.Command{
		Use:   "chart <workbook>",
		Short: "Render a numeric column of the filtered rows as a PNG line chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := f.apply(args[0])
			if err != nil {
				return err
			}
			if len(v.NumericColumns) == 0 {
				return fmt.Errorf("sheet %s: no numeric columns to visualize", v.Sheet.Name)
			}
			if column == "" {
				column = v.NumericColumns[0]
			}

			xs, ys, err := table.NumericValues(v.Filtered, table.NormalizeHeader(column))
			if err != nil {
				return err
			}

			if output == "" {
				output = filepath.Base(v.Sheet.Name) + "_" + table.NormalizeHeader(column) + ".png"
			}
			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create chart file: %w", err)
			}
			defer file.Close()

			opts := chart.Options{Width: width, Height: height, YLabel: column}
			if err := chart.LinePNG(file, v.Sheet.Name+": "+column, xs, ys, opts); err != nil {
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}

			return printSummary(cmd.ErrOrStderr(), output, ys)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&column, "column", "", "Numeric column to plot (default: first numeric column)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PNG (default: <company>_<column>.png)")
	cmd.Flags().IntVar(&width, "width", chart.DefaultWidth, "Image width in pixels")
	cmd.Flags().IntVar(&height, "height", chart.DefaultHeight, "Image height in pixels")
	return cmd
}

func printSummary(w io.Writer, output string, ys []float64) error {
	sum, err := chart.Summarize(ys)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "wrote %s (n=%d min=%g max=%g mean=%.4g median=%g)\n",
		output, sum.Count, sum.Min, sum.Max, sum.Mean, sum.Median)
	return err
}

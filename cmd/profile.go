package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/peekknuf/sage/internal/profiler"
	"github.com/peekknuf/sage/internal/source"
)

var (
	profileFormat string
	profileOutput string
)

var profileCmd = &cobra.Command{
	Use:   "profile [file]",
	Short: "Generate column statistics for a data file",
	Long: `Generate descriptive statistics for every column of a data file:
inferred type, completeness, distinct counts, value ranges and samples.

Examples:
  sage profile data.csv
  sage profile data.xlsx --output stats.txt`,

	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			log.Fatalf("Please specify a file to profile")
		}
		path := args[0]

		start := time.Now()
		ds, err := loadSourceFile(path, profileFormat)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", path, err)
		}
		prof := profiler.Profile(ds)

		var output strings.Builder
		output.WriteString("=== DATA PROFILE ===\n")
		output.WriteString(fmt.Sprintf("File: %s\n", path))
		output.WriteString(fmt.Sprintf("Rows: %s, Columns: %d, Missing cells: %.1f%%\n",
			humanize.Comma(int64(prof.RowCount)), prof.ColumnCount, prof.MissingRatio*100))
		output.WriteString(fmt.Sprintf("Processing time: %v\n\n", time.Since(start).Round(time.Millisecond)))

		output.WriteString(fmt.Sprintf("%-24s %-12s %9s %9s %14s %14s\n",
			"Column", "Type", "Complete", "Distinct", "Min", "Max"))
		output.WriteString(strings.Repeat("-", 86) + "\n")
		for _, col := range prof.Columns {
			output.WriteString(fmt.Sprintf("%-24s %-12s %8.1f%% %9d %14s %14s\n",
				truncateCell(col.Name, 24), col.Type, col.Completeness*100,
				col.Distinct, truncateCell(col.Min, 14), truncateCell(col.Max, 14)))
		}

		var numeric []profiler.ColumnProfile
		for _, col := range prof.Columns {
			if col.Type == source.TypeNumeric {
				numeric = append(numeric, col)
			}
		}
		if len(numeric) > 0 {
			output.WriteString("\n=== NUMERIC COLUMNS ===\n")
			for _, col := range numeric {
				output.WriteString(fmt.Sprintf("%s: mean %.2f, std %.2f\n",
					col.Name, col.Mean, col.Std))
			}
		}

		output.WriteString("\n=== SAMPLE VALUES ===\n")
		for _, col := range prof.Columns {
			if len(col.Samples) == 0 {
				continue
			}
			output.WriteString(fmt.Sprintf("%s: %s\n", col.Name, strings.Join(col.Samples, ", ")))
		}

		if profileOutput != "" {
			if err := os.WriteFile(profileOutput, []byte(output.String()), 0644); err != nil {
				log.Fatalf("Failed to write to output file %s: %v", profileOutput, err)
			}
			fmt.Printf("Results saved to %s\n", profileOutput)
		} else {
			fmt.Print(output.String())
		}
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().StringVarP(&profileFormat, "format", "f", "auto",
		"File format to profile (csv, xlsx, json, auto)")
	profileCmd.Flags().StringVarP(&profileOutput, "output", "o", "",
		"Output file to save results (default: stdout)")
}

func truncateCell(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}

package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/peekknuf/sage/internal/report"
)

var (
	reportOutput       string
	reportRenderFormat string
	reportFileFormat   string
	reportWithProfile  bool
)

var reportCmd = &cobra.Command{
	Use:   "report [file]",
	Short: "Assess a data file and render a report",
	Long: `Assess a data file and write a report. HTML reports are
self-contained pages; JSON and CSV suit further processing.

Examples:
  sage report data.csv -o report.html
  sage report data.csv -o result.json --report-format json`,

	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			log.Fatalf("Please specify a file to report on")
		}
		path := args[0]

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		if reportWithProfile {
			cfg.Grading.IncludeProfile = true
		}

		ds, err := loadSourceFile(path, reportFileFormat)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", path, err)
		}
		result := gradeSource(cfg, ds)

		formatName := reportRenderFormat
		if formatName == "" {
			formatName = cfg.Report.Format
		}
		format, err := report.ParseFormat(formatName)
		if err != nil {
			log.Fatalf("Invalid report format: %v", err)
		}

		out := reportOutput
		if out == "" {
			out = "report." + string(format)
		}
		if err := report.WriteFile(result, format, out, reportOptions(cfg)); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		fmt.Printf("Report saved to %s\n", out)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "",
		"Report file to write (default: report.<format>)")
	reportCmd.Flags().StringVar(&reportRenderFormat, "report-format", "",
		"Report format (html, json, csv; default from config)")
	reportCmd.Flags().StringVarP(&reportFileFormat, "format", "f", "auto",
		"File format to assess (csv, xlsx, json, auto)")
	reportCmd.Flags().BoolVar(&reportWithProfile, "profile", true,
		"Include column profiles in the report")
}

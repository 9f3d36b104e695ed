package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/peekknuf/sage/internal/web"
)

var (
	serveAddr       string
	serveFileFormat string
)

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Assess a data file and serve the report over HTTP",
	Long: `Assess a data file once and serve the result: the HTML report
at /, the raw result as JSON at /api/result, and a health probe
at /healthz.

Examples:
  sage serve data.csv
  sage serve data.csv --addr :9090`,

	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			log.Fatalf("Please specify a file to serve")
		}
		path := args[0]

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		cfg.Grading.IncludeProfile = true

		ds, err := loadSourceFile(path, serveFileFormat)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", path, err)
		}
		result := gradeSource(cfg, ds)

		srv := web.NewServer(result, reportOptions(cfg))
		log.Printf("Serving data quality report on %s", serveAddr)
		log.Fatal(srv.ListenAndServe(serveAddr))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080",
		"Listen address")
	serveCmd.Flags().StringVarP(&serveFileFormat, "format", "f", "auto",
		"File format to assess (csv, xlsx, json, auto)")
}

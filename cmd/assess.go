package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/peekknuf/sage/internal/config"
	"github.com/peekknuf/sage/internal/engine"
	"github.com/peekknuf/sage/internal/report"
	"github.com/peekknuf/sage/internal/source"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var (
	assessFormat       string
	assessRecursive    bool
	assessVerbose      bool
	assessMinSize      int64
	assessMaxSize      int64
	assessWorkers      int
	assessOutput       string
	assessReportFormat string
	assessProfile      bool
	assessDriver       string
	assessTable        string
	assessQuery        string
)

type assessResult struct {
	Path    string
	Size    int64
	Result  *engine.GradeResult
	Elapsed time.Duration
	Err     error
}

var assessCmd = &cobra.Command{
	Use:   "assess [file, directory or connection string]",
	Short: "Grade data quality of files or database tables",
	Long: `Grade data quality across completeness, accuracy, consistency
and timeliness. Metric selection, weights and thresholds come from
the config file.

Examples:
  sage assess data.csv                                  # Single file
  sage assess /data --recursive --format csv            # Directory
  sage assess data.csv --output report.html             # Save HTML report
  sage assess "postgres://user:pw@host/db" --table t    # Database table
  sage assess events.db --driver sqlite --table events  # SQLite file`,

	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			log.Fatalf("Please specify a file, directory or connection string to assess")
		}
		target := args[0]

		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		if assessProfile {
			cfg.Grading.IncludeProfile = true
		}

		if assessDriver != "" || strings.Contains(target, "://") {
			assessDatabase(cfg, target)
			return
		}

		info, err := os.Stat(target)
		if err != nil {
			log.Fatalf("Error accessing %s: %v", target, err)
		}
		if info.IsDir() {
			assessDirectory(cfg, target)
		} else {
			assessSingleFile(cfg, target)
		}
	},
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().StringVarP(&assessFormat, "format", "f", "auto",
		"File format to assess (csv, xlsx, json, auto)")
	assessCmd.Flags().BoolVarP(&assessRecursive, "recursive", "r", false,
		"Search directories recursively")
	assessCmd.Flags().BoolVarP(&assessVerbose, "verbose", "v", false,
		"Display per-column scores and recommendations")
	assessCmd.Flags().Int64Var(&assessMinSize, "min-size", 0,
		"Minimum file size in bytes")
	assessCmd.Flags().Int64Var(&assessMaxSize, "max-size", 0,
		"Maximum file size in bytes")
	assessCmd.Flags().IntVar(&assessWorkers, "workers", 0,
		"Number of parallel workers (default: CPU cores)")
	assessCmd.Flags().StringVarP(&assessOutput, "output", "o", "",
		"Write a report to this file")
	assessCmd.Flags().StringVar(&assessReportFormat, "report-format", "",
		"Report format (html, json, csv; default from config)")
	assessCmd.Flags().BoolVar(&assessProfile, "profile", false,
		"Include column profiles in the result")
	assessCmd.Flags().StringVar(&assessDriver, "driver", "",
		"Database driver (postgres, sqlite)")
	assessCmd.Flags().StringVar(&assessTable, "table", "",
		"Database table to assess")
	assessCmd.Flags().StringVar(&assessQuery, "query", "",
		"SQL query whose result set to assess")
}

func assessSingleFile(cfg *config.Config, path string) {
	start := time.Now()
	ds, err := loadSourceFile(path, assessFormat)
	if err != nil {
		log.Fatalf("Failed to load %s: %v", path, err)
	}
	result := gradeSource(cfg, ds)
	printResult(ds.Name(), result, time.Since(start))
	writeReportIfRequested(cfg, result)
}

func assessDatabase(cfg *config.Config, dsn string) {
	driver := assessDriver
	if driver == "" {
		driver = inferDriver(dsn)
	}

	start := time.Now()
	ds, err := source.LoadDatabase(driver, dsn, source.DatabaseOptions{
		Table: assessTable,
		Query: assessQuery,
	})
	if err != nil {
		log.Fatalf("Failed to load from database: %v", err)
	}
	result := gradeSource(cfg, ds)
	printResult(ds.Name(), result, time.Since(start))
	writeReportIfRequested(cfg, result)
}

func assessDirectory(cfg *config.Config, dirPath string) {
	exts := formatExtensions(assessFormat)
	files, err := source.Discover(dirPath, exts, source.DiscoverOptions{
		Recursive: assessRecursive,
		MinSize:   assessMinSize,
		MaxSize:   assessMaxSize,
	})
	if err != nil {
		log.Fatalf("Failed to discover files: %v", err)
	}
	if len(files) == 0 {
		fmt.Printf("No data files found in %s\n", dirPath)
		return
	}
	fmt.Printf("Found %d data files\n", len(files))

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[cyan][reset] Assessing files..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)

	workers := assessWorkers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	results := assessFilesParallel(cfg, files, workers, bar)
	bar.Finish()

	printSummary(results, time.Since(start))

	if assessOutput != "" {
		log.Printf("Report output is only written for single-source assessments, ignoring --output")
	}
}

func assessFilesParallel(cfg *config.Config, files []source.FileMeta, workers int, bar *progressbar.ProgressBar) []assessResult {
	semaphore := make(chan struct{}, workers)
	out := make(chan assessResult, len(files))

	var wg sync.WaitGroup
	for _, file := range files {
		wg.Add(1)
		go func(f source.FileMeta) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			start := time.Now()
			res, err := assessFile(cfg, f.Path)
			out <- assessResult{
				Path:    f.Path,
				Size:    f.Size,
				Result:  res,
				Elapsed: time.Since(start),
				Err:     err,
			}
			bar.Add(1)
		}(file)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	var all []assessResult
	for r := range out {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Path < all[j].Path })
	return all
}

// assessFile grades one file, returning errors instead of exiting so the
// worker pool can keep going.
func assessFile(cfg *config.Config, path string) (*engine.GradeResult, error) {
	ds, err := loadSourceFile(path, assessFormat)
	if err != nil {
		return nil, err
	}
	grader, err := config.BuildGrader(cfg)
	if err != nil {
		return nil, err
	}
	if err := grader.Load(ds); err != nil {
		return nil, err
	}
	return grader.Grade()
}

func gradeSource(cfg *config.Config, ds *source.DataSource) *engine.GradeResult {
	grader, err := config.BuildGrader(cfg)
	if err != nil {
		log.Fatalf("Invalid metric configuration: %v", err)
	}
	if err := grader.Load(ds); err != nil {
		log.Fatalf("Failed to load data source: %v", err)
	}
	result, err := grader.Grade()
	if err != nil {
		log.Fatalf("Grading failed: %v", err)
	}
	return result
}

func loadSourceFile(path, format string) (*source.DataSource, error) {
	switch format {
	case "", "auto":
		return source.LoadFile(path)
	case "csv":
		return source.LoadCSV(path, source.CSVOptions{})
	case "xlsx":
		return source.LoadExcel(path, source.ExcelOptions{})
	case "json":
		return source.LoadJSON(path)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

func formatExtensions(format string) []string {
	switch format {
	case "", "auto":
		return []string{".csv", ".xlsx", ".xlsm", ".json"}
	case "csv":
		return []string{".csv"}
	case "xlsx":
		return []string{".xlsx", ".xlsm"}
	case "json":
		return []string{".json"}
	}
	log.Fatalf("Unknown format %q (must be csv, xlsx, json or auto)", format)
	return nil
}

func inferDriver(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

func printResult(name string, res *engine.GradeResult, elapsed time.Duration) {
	fmt.Printf("\nSource: %s\n", name)
	fmt.Printf("- Rows: %s, Columns: %d\n",
		humanize.Comma(int64(res.Metadata.RowCount)), res.Metadata.ColumnCount)
	fmt.Printf("- Overall: %.1f%% (%s)\n", res.OverallScore*100, res.OverallStatus)
	for _, mname := range res.MetricOrder {
		m := res.Metrics[mname]
		if m.Status.Evaluated() {
			fmt.Printf("- %s: %.1f%% (%s)\n", mname, m.Score*100, m.Status)
		} else {
			fmt.Printf("- %s: %s (%s)\n", mname, m.Status, m.Message)
		}
	}
	fmt.Printf("- Processing time: %v\n", elapsed.Round(time.Millisecond))

	if !assessVerbose {
		return
	}

	for _, mname := range res.MetricOrder {
		m := res.Metrics[mname]
		if len(m.Columns) == 0 {
			continue
		}
		fmt.Printf("\nColumns (%s):\n", mname)
		cols := make([]string, 0, len(m.Columns))
		for c := range m.Columns {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		for _, c := range cols {
			cs := m.Columns[c]
			fmt.Printf("  %s: %.1f%% (%s), %d evaluated, %d failed\n",
				c, cs.Score*100, cs.Status, cs.Evaluated, cs.Failed)
		}
	}

	if len(res.Recommendations) > 0 {
		fmt.Printf("\nRecommendations:\n")
		for _, rec := range res.Recommendations {
			fmt.Printf("  [%s] %s\n", rec.Priority, rec.Title)
		}
	}
}

func printSummary(results []assessResult, totalTime time.Duration) {
	var output strings.Builder

	output.WriteString("=== ASSESSMENT SUMMARY ===\n")
	output.WriteString(fmt.Sprintf("Total files assessed: %d\n", len(results)))
	output.WriteString(fmt.Sprintf("Total processing time: %v\n", totalTime.Round(time.Millisecond)))

	var totalRows int
	var totalSize int64
	var passed, warned, failed int
	for _, r := range results {
		if r.Err != nil {
			log.Printf("Failed to assess %s: %v", r.Path, r.Err)
			continue
		}
		totalRows += r.Result.Metadata.RowCount
		totalSize += r.Size
		switch r.Result.OverallStatus {
		case engine.StatusPassed:
			passed++
		case engine.StatusWarning:
			warned++
		case engine.StatusFailed:
			failed++
		}
	}
	output.WriteString(fmt.Sprintf("Total rows processed: %s\n", humanize.Comma(int64(totalRows))))
	output.WriteString(fmt.Sprintf("Total data volume: %s\n", humanize.Bytes(uint64(totalSize))))
	output.WriteString(fmt.Sprintf("Passed: %d, Warning: %d, Failed: %d\n", passed, warned, failed))
	output.WriteString("\n")

	output.WriteString("=== PER-FILE RESULTS ===\n")
	output.WriteString(fmt.Sprintf("%-40s %10s %8s %8s %10s %12s\n",
		"File", "Rows", "Columns", "Score", "Status", "Time"))
	output.WriteString(strings.Repeat("-", 94) + "\n")

	for _, r := range results {
		if r.Err != nil {
			continue
		}
		name := filepath.Base(r.Path)
		if len(name) > 37 {
			name = name[:34] + "..."
		}
		output.WriteString(fmt.Sprintf("%-40s %10d %8d %7.1f%% %10s %12s\n",
			name, r.Result.Metadata.RowCount, r.Result.Metadata.ColumnCount,
			r.Result.OverallScore*100, r.Result.OverallStatus,
			r.Elapsed.Round(time.Millisecond)))
	}

	fmt.Print(output.String())
}

func writeReportIfRequested(cfg *config.Config, res *engine.GradeResult) {
	if assessOutput == "" {
		return
	}
	formatName := assessReportFormat
	if formatName == "" {
		formatName = cfg.Report.Format
	}
	format, err := report.ParseFormat(formatName)
	if err != nil {
		log.Fatalf("Invalid report format: %v", err)
	}
	if err := report.WriteFile(res, format, assessOutput, reportOptions(cfg)); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
	fmt.Printf("Report saved to %s\n", assessOutput)
}

func reportOptions(cfg *config.Config) report.Options {
	opts := report.DefaultOptions()
	opts.IncludeCharts = cfg.Report.IncludeCharts
	opts.IncludeRecommendations = cfg.Report.IncludeRecommendations
	return opts
}

// Package report renders a grade result as HTML, JSON, or CSV.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/peekknuf/sage/internal/engine"
)

// Format names a supported report output format.
type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "html":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("report: unknown format %q", s)
}

// Options tunes the rendered output. The zero value renders everything with
// the default title.
type Options struct {
	Title                  string
	IncludeCharts          bool
	IncludeRecommendations bool
}

// DefaultOptions returns the options used by the CLI when none are configured.
func DefaultOptions() Options {
	return Options{
		Title:                  "Data Quality Report",
		IncludeCharts:          true,
		IncludeRecommendations: true,
	}
}

// Render produces the report in the requested format.
func Render(result *engine.GradeResult, format Format, opts Options) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("report: nil result")
	}
	switch format {
	case FormatHTML:
		return RenderHTML(result, opts)
	case FormatJSON:
		return RenderJSON(result)
	case FormatCSV:
		return RenderCSV(result)
	}
	return nil, fmt.Errorf("report: unknown format %q", format)
}

// WriteFile renders the report and writes it to path.
func WriteFile(result *engine.GradeResult, format Format, path string, opts Options) error {
	data, err := Render(result, format, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	return nil
}

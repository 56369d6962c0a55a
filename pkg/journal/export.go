package journal

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"github.com/xuri/excelize/v2"
)

// ExportFormat represents the format for exporting reports
type ExportFormat string

const (
	FormatText ExportFormat = "text"
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
	FormatXLSX ExportFormat = "xlsx"
	FormatPNG  ExportFormat = "png"
)

// Export errors
var (
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrNothingToChart    = errors.New("report has nothing to chart")
)

// ParseFormat validates a format name
func ParseFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatCSV, FormatJSON, FormatXLSX, FormatPNG:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Extension returns the file extension used for the format
func (f ExportFormat) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// FileName returns the default file name of a report
func FileName(kind ReportKind, format ExportFormat) string {
	return string(kind) + "." + format.Extension()
}

// ReportExport is the JSON document written for a report
type ReportExport struct {
	Kind       ReportKind       `json:"kind"`
	Title      string           `json:"title"`
	ExportedAt time.Time        `json:"exported_at"`
	Columns    []string         `json:"columns"`
	Rows       []map[string]any `json:"rows"`
}

// Exporter writes reports in the supported formats
type Exporter struct {
	now func() time.Time
}

// NewExporter creates a new exporter instance
func NewExporter() *Exporter {
	return &Exporter{now: time.Now}
}

// SetClock replaces the clock used for the generation stamp
func (e *Exporter) SetClock(now func() time.Time) {
	e.now = now
}

// Export writes report to writer in the given format
func (e *Exporter) Export(report *Report, format ExportFormat, writer io.Writer) error {
	switch format {
	case FormatText:
		return e.ExportText(report, writer)
	case FormatCSV:
		return e.ExportCSV(report, writer)
	case FormatJSON:
		return e.ExportJSON(report, writer)
	case FormatXLSX:
		return e.ExportXLSX(report, writer)
	case FormatPNG:
		return e.ExportPNG(report, writer)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// ExportToFile exports a report through a temporary file renamed into place
func (e *Exporter) ExportToFile(report *Report, filePath string, format ExportFormat) (err error) {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	tempFile := filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tempFile)
		}
	}()

	if err = e.Export(report, format, file); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err = os.Rename(tempFile, filePath); err != nil {
		return fmt.Errorf("failed to replace target file: %w", err)
	}
	return nil
}

// ExportCSV writes the header row followed by one record per row
func (e *Exporter) ExportCSV(report *Report, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write(report.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i, row := range report.Rows {
		if err := csvWriter.Write(formatRow(row)); err != nil {
			return fmt.Errorf("failed to write CSV record %d: %w", i+1, err)
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// ExportJSON writes rows as objects keyed by column name
func (e *Exporter) ExportJSON(report *Report, writer io.Writer) error {
	export := ReportExport{
		Kind:       report.Kind,
		Title:      report.Title,
		ExportedAt: e.now().UTC(),
		Columns:    report.Columns,
		Rows:       make([]map[string]any, 0, len(report.Rows)),
	}
	for _, row := range report.Rows {
		object := make(map[string]any, len(report.Columns))
		for i, column := range report.Columns {
			if i < len(row) {
				object[column] = row[i]
			}
		}
		export.Rows = append(export.Rows, object)
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportText writes a human-readable aligned table
func (e *Exporter) ExportText(report *Report, writer io.Writer) error {
	fmt.Fprintf(writer, "%s\n", report.Title)
	fmt.Fprintf(writer, "%s\n", strings.Repeat("=", len([]rune(report.Title))))
	fmt.Fprintf(writer, "Generated: %s\n\n", e.now().Format("2006-01-02 15:04:05"))

	if len(report.Rows) == 0 {
		_, err := fmt.Fprintln(writer, "(no entries)")
		return err
	}

	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(report.Columns, "\t"))
	for _, row := range report.Rows {
		fmt.Fprintln(tw, strings.Join(formatRow(row), "\t"))
	}
	return tw.Flush()
}

// ExportXLSX writes a workbook with a single sheet named after the report
func (e *Exporter) ExportXLSX(report *Report, writer io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(report.Title)
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(report.Columns))
	for i, column := range report.Columns {
		header[i] = column
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range report.Rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(writer); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNumber int, cells []any) error {
	axis, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNumber, err)
	}
	return nil
}

// sheetName strips the characters Excel rejects and keeps the 31 rune limit
func sheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return ' '
		}
		return r
	}, strings.TrimSpace(title))
	if runes := []rune(name); len(runes) > 31 {
		name = strings.TrimSpace(string(runes[:31]))
	}
	if name == "" {
		return "Report"
	}
	return name
}

// ExportPNG renders the report's value column as a bar chart
func (e *Exporter) ExportPNG(report *Report, writer io.Writer) error {
	if report.ValueColumn < 0 {
		return fmt.Errorf("%w: %s", ErrNothingToChart, report.Title)
	}

	var bars []chart.Value
	maxValue := 0.0
	for _, row := range report.Rows {
		if report.ValueColumn >= len(row) {
			continue
		}
		value, ok := toFloat(row[report.ValueColumn])
		if !ok {
			continue
		}
		label := ""
		if report.LabelColumn < len(row) {
			label = formatCell(row[report.LabelColumn])
		}
		bars = append(bars, chart.Value{Label: label, Value: value})
		maxValue = max(maxValue, value)
	}
	if len(bars) == 0 {
		return fmt.Errorf("%w: %s has no values", ErrNothingToChart, report.Title)
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	graph := chart.BarChart{
		Title:  report.Title,
		Width:  max(800, 70*len(bars)+120),
		Height: 480,
		Background: chart.Style{
			Padding:   chart.Box{Top: 48},
			FillColor: drawing.ColorWhite,
		},
		BarWidth:   50,
		BarSpacing: 20,
		YAxis: chart.YAxis{
			Name:  report.Columns[report.ValueColumn],
			Range: &chart.ContinuousRange{Min: 0, Max: maxValue * 1.1},
		},
		Bars: bars,
	}
	if err := graph.Render(chart.PNG, writer); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func formatRow(row []any) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = formatCell(cell)
	}
	return out
}

func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case int:
		return strconv.Itoa(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

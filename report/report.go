package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"time"

	"fundrecon/pkg/compare"
)

// -----------------------------
// Report Generator Interfaces
// -----------------------------

// Generator defines the methods for rendering a comparison result.
type Generator interface {
	GenerateReport(result *compare.Result) ([]byte, error)
	SaveReportToFile(result *compare.Result, filePath string) error
}

// -----------------------------
// JSON Report Generator
// -----------------------------

// JSONReportGenerator renders the full result as indented JSON.
type JSONReportGenerator struct{}

type jsonReport struct {
	ReportInfo struct {
		GeneratedAt    string `json:"generated_at"`
		ComparisonType string `json:"comparison_type"`
		Version        string `json:"version"`
	} `json:"report_info"`
	Summary        compare.Summary        `json:"summary"`
	Differences    compare.Differences    `json:"differences"`
	Statistics     compare.Statistics     `json:"statistics"`
	KeyDifferences compare.KeyDifferences `json:"key_differences"`
}

// GenerateReport serializes the comparison result to JSON.
func (j *JSONReportGenerator) GenerateReport(result *compare.Result) ([]byte, error) {
	var rep jsonReport
	rep.ReportInfo.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	rep.ReportInfo.ComparisonType = string(result.ComparisonType)
	rep.ReportInfo.Version = "1.0"
	rep.Summary = result.Summary
	rep.Differences = result.Differences
	rep.Statistics = result.Statistics
	rep.KeyDifferences = compare.ExtractKeyDifferences(result)
	return json.MarshalIndent(rep, "", "  ")
}

// GenerateSummaryJSON renders only the headline counts, suitable for a
// short status message.
func (j *JSONReportGenerator) GenerateSummaryJSON(result *compare.Result) ([]byte, error) {
	summary := map[string]interface{}{
		"comparison_type": result.ComparisonType,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"summary":         result.Summary,
		"key_differences": compare.ExtractKeyDifferences(result),
	}
	return json.MarshalIndent(summary, "", "  ")
}

// SaveReportToFile saves the JSON report to a file.
func (j *JSONReportGenerator) SaveReportToFile(result *compare.Result, filePath string) error {
	data, err := j.GenerateReport(result)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// -----------------------------
// HTML Report Generator
// -----------------------------

// HTMLReportGenerator renders an HTML report. DisplayLimit caps the number
// of differing rows rendered; the underlying result always holds the full
// set.
type HTMLReportGenerator struct {
	DisplayLimit int
}

// HTML template for the report.
const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Reconciliation Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f4f4f4; }
        .status-pass { color: green; }
        .status-fail { color: red; }
    </style>
</head>
<body>
    <h1>Reconciliation Report</h1>
    <p><strong>Comparison Type:</strong> {{.Result.ComparisonType}}</p>
    <p><strong>Generated:</strong> {{.Generated}}</p>

    <h2>Summary</h2>
    <table>
        <tr>
            <th>Internal Rows</th>
            <th>Fund Rows</th>
            <th>Common</th>
            <th>Identical</th>
            <th>Different</th>
            <th>Match %</th>
            <th>Status</th>
        </tr>
        <tr>
            <td>{{.Result.Summary.TotalRowsDf1}}</td>
            <td>{{.Result.Summary.TotalRowsDf2}}</td>
            <td>{{.Result.Summary.CommonRows}}</td>
            <td>{{.Result.Summary.IdenticalRows}}</td>
            <td>{{.Result.Summary.DifferentRows}}</td>
            <td>{{printf "%.2f" .Result.Summary.MatchPercentage}}</td>
            <td class="{{if .Pass}}status-pass{{else}}status-fail{{end}}">
                {{if .Pass}}PASS{{else}}FAIL{{end}}
            </td>
        </tr>
    </table>

    {{if or .Result.Summary.DuplicateKeysDf1 .Result.Summary.DuplicateKeysDf2}}
    <p><strong>Duplicate keys:</strong> internal {{.Result.Summary.DuplicateKeysDf1}}, fund {{.Result.Summary.DuplicateKeysDf2}}</p>
    {{end}}

    <h2>Schema</h2>
    <h3>Columns missing in internal dataset:</h3>
    <ul>
        {{range .Result.Differences.Schema.MissingInDf1}}<li>{{.}}</li>{{else}}<li>None</li>{{end}}
    </ul>
    <h3>Columns missing in fund report:</h3>
    <ul>
        {{range .Result.Differences.Schema.MissingInDf2}}<li>{{.}}</li>{{else}}<li>None</li>{{end}}
    </ul>
    <h3>Type mismatches:</h3>
    <table>
        <tr><th>Column</th><th>Internal</th><th>Fund</th></tr>
        {{range $col, $tm := .Result.Differences.Schema.TypeMismatches}}
        <tr><td>{{$col}}</td><td>{{$tm.Df1}}</td><td>{{$tm.Df2}}</td></tr>
        {{end}}
    </table>

    <h2>Missing Keys</h2>
    <p><strong>Only in fund report:</strong> {{len .Result.Differences.MissingInDf1}}</p>
    <p><strong>Only in internal dataset:</strong> {{len .Result.Differences.MissingInDf2}}</p>

    <h2>Cell Differences {{if .Truncated}}(first {{len .Cells}} of {{.TotalCells}}){{end}}</h2>
    <table>
        <tr>
            <th>Row Key</th>
            <th>Column</th>
            <th>Internal Value</th>
            <th>Fund Value</th>
            <th>Classification</th>
        </tr>
        {{range .Cells}}
        <tr>
            <td>{{.RowKey}}</td>
            <td>{{.Column}}</td>
            <td>{{.File1Value.Format}}</td>
            <td>{{.File2Value.Format}}</td>
            <td>{{.Classification}}</td>
        </tr>
        {{end}}
    </table>

    <footer>
        <p>Generated on {{.Generated}}</p>
    </footer>
</body>
</html>
`

type htmlContext struct {
	Result     *compare.Result
	Generated  string
	Pass       bool
	Cells      []compare.FlatDiff
	TotalCells int
	Truncated  bool
}

// GenerateReport renders the comparison result as HTML.
func (h *HTMLReportGenerator) GenerateReport(result *compare.Result) ([]byte, error) {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return nil, err
	}

	cells := compare.Flatten(result)
	total := len(cells)
	limit := h.DisplayLimit
	if limit <= 0 {
		limit = 100
	}
	truncated := total > limit
	if truncated {
		cells = cells[:limit]
	}

	ctx := htmlContext{
		Result:     result,
		Generated:  time.Now().UTC().Format(time.RFC3339),
		Pass:       passed(result),
		Cells:      cells,
		TotalCells: total,
		Truncated:  truncated,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveReportToFile saves the HTML report to a file.
func (h *HTMLReportGenerator) SaveReportToFile(result *compare.Result, filePath string) error {
	data, err := h.GenerateReport(result)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

func passed(r *compare.Result) bool {
	return r.Summary.DifferentRows == 0 &&
		len(r.Differences.MissingInDf1) == 0 &&
		len(r.Differences.MissingInDf2) == 0
}

// -----------------------------
// CSV Differences Export
// -----------------------------

// WriteDifferencesCSV exports the flattened per-cell differences as CSV:
// one line per differing cell with both values and the classification.
func WriteDifferencesCSV(result *compare.Result, filePath string) error {
	flat := compare.Flatten(result)

	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"row_key", "column", "file1_value", "file2_value", "classification"}); err != nil {
		return err
	}
	for _, d := range flat {
		record := []string{
			d.RowKey,
			d.Column,
			d.File1Value.Format(),
			d.File2Value.Format(),
			string(d.Classification),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// SaveReports saves both JSON and HTML reports.
func SaveReports(result *compare.Result, jsonPath, htmlPath string) error {
	jsonGen := JSONReportGenerator{}
	htmlGen := HTMLReportGenerator{}

	if err := jsonGen.SaveReportToFile(result, jsonPath); err != nil {
		return fmt.Errorf("failed to save JSON report: %w", err)
	}
	if err := htmlGen.SaveReportToFile(result, htmlPath); err != nil {
		return fmt.Errorf("failed to save HTML report: %w", err)
	}
	return nil
}

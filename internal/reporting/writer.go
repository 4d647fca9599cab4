package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"trade-reconciler/internal/domain"
)

// Output file names inside a run's report directory.
const (
	TradesCSVFile       = "trades.csv"
	SummaryMarkdownFile = "summary.md"
	SummaryJSONFile     = "summary.json"
)

// WriteSummaryJSON writes the report as indented JSON.
func WriteSummaryJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode summary json: %w", err)
	}
	return nil
}

// WriteAll writes the trades CSV, the Markdown summary and the JSON summary
// into dir/<run id>, creating it as needed. Returns the directory written.
func WriteAll(dir string, r *Report, trades []domain.ReconciledTrade) (string, error) {
	out := filepath.Join(dir, r.RunID)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	if err := writeFile(filepath.Join(out, TradesCSVFile), func(w io.Writer) error {
		return WriteTradesCSV(w, trades)
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(out, SummaryMarkdownFile), func(w io.Writer) error {
		_, err := io.WriteString(w, RenderSummaryMarkdown(r))
		return err
	}); err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(out, SummaryJSONFile), func(w io.Writer) error {
		return WriteSummaryJSON(w, r)
	}); err != nil {
		return "", err
	}
	return out, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

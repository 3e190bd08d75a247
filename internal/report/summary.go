package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/ternarybob/playq/internal/interfaces"
)

// WriteSummaryPDF renders a one-page run summary with a per-step table
// into the run directory.
func WriteSummaryPDF(dir string, run *interfaces.RunSummary, results []*interfaces.StepResult) (string, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "PlayQ Run Summary")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Run: %s", run.ID))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Started: %s", run.StartedAt.Format("2006-01-02 15:04:05")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Duration: %s", run.FinishedAt.Sub(run.StartedAt).Round(1e6)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Passed: %d   Failed: %d", run.Passed, run.Failed))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(100, 7, "Step", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, "Status", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 7, "Duration", "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 7, "Error", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	for _, result := range results {
		step := result.Step
		if len(step) > 60 {
			step = step[:57] + "..."
		}
		errText := result.Error
		if len(errText) > 30 {
			errText = errText[:27] + "..."
		}
		pdf.CellFormat(100, 6, step, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, result.Status, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, result.Duration.Round(1e6).String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, errText, "1", 1, "L", false, 0, "")
	}

	path := filepath.Join(dir, "summary.pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		// Leave a partial file out of the results directory on failure.
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write run summary: %w", err)
	}
	return path, nil
}

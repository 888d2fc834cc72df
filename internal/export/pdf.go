// Package export renders list views as PDF documents.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"example.com/oilchain/internal/listview"
)

const (
	pageWidth  = 277.0 // A4 landscape minus margins
	rowHeight  = 7.0
	fontFamily = "Helvetica"
)

// Table is the data handed to the renderer
type Table struct {
	Title       string
	Columns     []string
	Widths      []float64
	Rows        [][]string
	Summary     []string
	GeneratedAt time.Time
}

// FromView builds a table from records using the column layout of spec.
func FromView[T listview.Record](spec *listview.Spec[T], title string, records []T, totals listview.Totals) Table {
	t := Table{
		Title:       title,
		Columns:     make([]string, 0, len(spec.Columns)),
		Widths:      make([]float64, 0, len(spec.Columns)),
		Rows:        make([][]string, 0, len(records)),
		GeneratedAt: time.Now(),
	}
	if t.Title == "" {
		t.Title = spec.Title
	}
	for _, c := range spec.Columns {
		t.Columns = append(t.Columns, c.Label)
		t.Widths = append(t.Widths, c.Width)
	}
	for _, r := range records {
		row := make([]string, 0, len(spec.Columns))
		for _, c := range spec.Columns {
			row = append(row, c.Cell(r))
		}
		t.Rows = append(t.Rows, row)
	}
	t.Summary = summaryLines(totals)
	return t
}

func summaryLines(totals listview.Totals) []string {
	lines := []string{fmt.Sprintf("Nombre d'enregistrements: %d", totals.Count)}
	for _, name := range sortedKeys(totals.Quantities) {
		lines = append(lines, fmt.Sprintf("Total %s: %.2f", name, totals.Quantities[name]))
	}
	for _, name := range sortedKeys(totals.Amounts) {
		lines = append(lines, fmt.Sprintf("Total %s: %s Ar", name, totals.Amounts[name].StringFixed(2)))
	}
	if totals.RemainingPercent != nil {
		lines = append(lines, fmt.Sprintf("Restant: %d%%", *totals.RemainingPercent))
	}
	return lines
}

// Render writes t as a landscape A4 document.
func Render(w io.Writer, t Table) error {
	if len(t.Columns) == 0 {
		return errors.New("export: table has no columns")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	widths := scaleWidths(t.Widths, len(t.Columns))

	generated := t.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.SetTitle(tr(t.Title), false)
	pdf.SetCreator("oilchain", false)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("Généré le %s - page %d", generated.Format("02/01/2006 15:04"), pdf.PageNo())), "", 0, "C", false, 0, "")
	})

	header := func() {
		pdf.SetFont(fontFamily, "B", 9)
		pdf.SetFillColor(46, 125, 50)
		pdf.SetTextColor(255, 255, 255)
		for i, col := range t.Columns {
			pdf.CellFormat(widths[i], rowHeight, tr(col), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(fontFamily, "", 8)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 14)
	pdf.CellFormat(0, 10, tr(t.Title), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for n, row := range t.Rows {
		if pdf.GetY()+rowHeight > pageHeight-bottom-12 {
			pdf.AddPage()
			header()
		}
		fill := n%2 == 1
		pdf.SetFillColor(241, 248, 233)
		for i := range t.Columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pdf.CellFormat(widths[i], rowHeight, tr(fit(pdf, cell, widths[i])), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(t.Summary) > 0 {
		pdf.Ln(4)
		pdf.SetFont(fontFamily, "B", 9)
		for _, line := range t.Summary {
			pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
		}
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "failed to render pdf")
	}
	return nil
}

func scaleWidths(widths []float64, n int) []float64 {
	out := make([]float64, n)
	var total float64
	for i := 0; i < n; i++ {
		if i < len(widths) && widths[i] > 0 {
			out[i] = widths[i]
		} else {
			out[i] = pageWidth / float64(n)
		}
		total += out[i]
	}
	if total > pageWidth {
		for i := range out {
			out[i] = out[i] * pageWidth / total
		}
	}
	return out
}

// fit shortens text that would overflow its cell.
func fit(pdf *fpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

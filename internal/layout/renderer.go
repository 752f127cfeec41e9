package layout

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Renderer turns a layout description into PDF bytes. The worker and the CLI
// depend on this interface rather than on gofpdf directly.
type Renderer interface {
	Render(ctx context.Context, doc Layout) ([]byte, error)
}

// PDFRenderer is the gofpdf-backed Renderer.
type PDFRenderer struct{}

// NewPDFRenderer returns the default A4 portrait renderer.
func NewPDFRenderer() *PDFRenderer { return &PDFRenderer{} }

// Render lays the document out top to bottom: title block, sections with
// label/value rows and paragraphs, optional footer on every page.
func (r *PDFRenderer) Render(ctx context.Context, doc Layout) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 20, 18)
	pdf.SetAutoPageBreak(true, 22)
	if doc.Footer != "" {
		footer := doc.Footer
		pdf.SetFooterFunc(func() {
			pdf.SetY(-16)
			pdf.SetFont("Helvetica", "I", 8)
			pdf.SetTextColor(120, 120, 120)
			pdf.CellFormat(0, 8, footer, "", 0, "C", false, 0, "")
		})
	}
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(30, 30, 30)
	pdf.MultiCell(0, 9, doc.Title, "", "C", false)
	if doc.Subtitle != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 6, doc.Subtitle, "", "C", false)
	}
	pdf.Ln(6)

	for _, section := range doc.Sections {
		if section.Title != "" {
			pdf.SetFont("Helvetica", "B", 13)
			pdf.SetTextColor(30, 30, 30)
			pdf.MultiCell(0, 7, section.Title, "", "L", false)
			pdf.SetDrawColor(200, 200, 200)
			x, y := pdf.GetX(), pdf.GetY()
			pageW, _ := pdf.GetPageSize()
			pdf.Line(x, y, pageW-18, y)
			pdf.Ln(3)
		}
		for _, row := range section.Rows {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.SetTextColor(60, 60, 60)
			pdf.CellFormat(48, 6, row.Label, "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(30, 30, 30)
			pdf.MultiCell(0, 6, row.Value, "", "L", false)
		}
		if section.Paragraph != "" {
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(30, 30, 30)
			pdf.MultiCell(0, 6, section.Paragraph, "", "L", false)
		}
		if section.Info != "" {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.SetTextColor(90, 90, 90)
			pdf.MultiCell(0, 5, section.Info, "", "L", false)
		}
		pdf.Ln(5)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

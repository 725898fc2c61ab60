package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Letter carries the resolved fields handed to the rendering gateway once a
// request is completed and numbered.
type Letter struct {
	Number      string
	Category    string
	OrgUnit     string
	Subject     string
	RequestedBy string
	DecidedBy   string
	DecidedAt   time.Time
	Notes       string
}

// LetterPDF renders official letters into printable PDF artifacts.
type LetterPDF struct {
	institution string
}

// NewLetterPDF constructs a renderer stamped with the institution name.
func NewLetterPDF(institution string) *LetterPDF {
	if institution == "" {
		institution = "Universitas"
	}
	return &LetterPDF{institution: institution}
}

// Render produces the PDF bytes for a numbered letter.
func (r *LetterPDF) Render(letter Letter) ([]byte, error) {
	if letter.Number == "" {
		return nil, fmt.Errorf("letter number is required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Times", "B", 14)
	pdf.CellFormat(0, 8, strings.ToUpper(r.institution), "", 1, "C", false, 0, "")
	pdf.SetFont("Times", "", 10)
	if letter.OrgUnit != "" {
		pdf.CellFormat(0, 6, letter.OrgUnit, "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)
	pdf.SetLineWidth(0.6)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(6)

	pdf.SetFont("Times", "B", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Nomor: %s", letter.Number), "", 1, "C", false, 0, "")
	pdf.SetFont("Times", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Perihal: %s (%s)", letter.Subject, letter.Category), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	rows := [][2]string{
		{"Requested by", letter.RequestedBy},
		{"Approved by", letter.DecidedBy},
		{"Approved at", letter.DecidedAt.Format("2 January 2006")},
	}
	pdf.SetFont("Times", "", 10)
	for _, row := range rows {
		pdf.CellFormat(45, 7, row[0], "", 0, "", false, 0, "")
		pdf.CellFormat(0, 7, ": "+row[1], "", 1, "", false, 0, "")
	}

	if letter.Notes != "" {
		pdf.Ln(4)
		pdf.MultiCell(0, 6, letter.Notes, "", "", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render letter pdf: %w", err)
	}
	return buf.Bytes(), nil
}

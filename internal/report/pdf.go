package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"
)

// coreFont maps the document font onto the closest PDF core font family.
func coreFont(font string) string {
	name := strings.ToLower(font)
	for _, serif := range []string{"times", "georgia", "garamond", "cambria", "book antiqua", "palatino", "serif"} {
		if strings.Contains(name, serif) && !strings.Contains(name, "sans") {
			return "Times"
		}
	}
	for _, mono := range []string{"courier", "consolas", "mono"} {
		if strings.Contains(name, mono) {
			return "Courier"
		}
	}
	return "Arial"
}

// The PDF uses core fonts only; code and terminal blocks are always Courier.
func renderPDF(doc *document) ([]byte, error) {
	family := coreFont(doc.font)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetCreationDate(fixedModTime)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(doc.title, true)
	pdf.AliasNbPages("{nb}")

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(family, "", 9)
		pdf.SetTextColor(108, 117, 125)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont(family, "B", 22)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 14, tr(doc.title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(family, "B", 12)
	pdf.SetTextColor(47, 84, 150)
	for _, m := range doc.meta {
		pdf.MultiCell(0, 7, tr(m), "", "L", false)
	}
	pdf.Ln(6)

	for _, s := range doc.sections {
		if s.heading != "" {
			size := 13.0
			if s.headingRank == 1 {
				size = 16
				pdf.Ln(2)
			}
			pdf.SetFont(family, "B", size)
			pdf.SetTextColor(47, 84, 150)
			pdf.MultiCell(0, 8, tr(s.heading), "", "L", false)
			pdf.Ln(1)
		}

		pdf.SetFont(family, "", 11)
		pdf.SetTextColor(33, 37, 41)
		pdf.MultiCell(0, 6, tr(s.text), "", "L", false)
		pdf.Ln(2)

		pdf.SetFont("Courier", "", 10)
		pdf.SetFillColor(245, 245, 245)
		pdf.SetTextColor(33, 37, 41)
		pdf.MultiCell(0, 5, tr(s.sql), "", "L", true)
		pdf.Ln(3)

		addTerminal(pdf, tr(s.terminal))
		pdf.Ln(8)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// addTerminal draws the dark SQL*Plus panel.
func addTerminal(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Courier", "", 9)
	pdf.SetFillColor(12, 12, 12)
	pdf.SetTextColor(204, 204, 204)
	pdf.SetCellMargin(3)
	pdf.MultiCell(0, 4.5, "\n"+text+"\n", "", "L", true)
	pdf.SetCellMargin(1)
}

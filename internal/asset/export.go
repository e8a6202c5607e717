// AngelaMos | 2026
// export.go

package asset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

var exportHeader = []string{
	"Name",
	"Category",
	"Department",
	"Date Purchased",
	"Cost",
	"Status",
	"Warranty Expiry",
	"Created At",
}

func exportRow(a *Asset) []string {
	expiry := ""
	if a.WarrantyExpiryDate != nil {
		expiry = a.WarrantyExpiryDate.Format(DateLayout)
	}

	cost := ""
	if a.Cost.Valid {
		cost = a.Cost.Decimal.StringFixed(2)
	}

	return []string{
		a.Name,
		a.Category,
		a.Department,
		a.DatePurchasedString(),
		cost,
		a.Status,
		expiry,
		a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func WriteCSV(w io.Writer, assets []Asset) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i := range assets {
		if err := cw.Write(exportRow(&assets[i])); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

var pdfColumnWidths = []float64{62, 34, 34, 26, 26, 32, 28, 35}

// WritePDF renders a landscape A4 table with a total row.
func WritePDF(w io.Writer, title string, assets []Asset, generatedAt time.Time) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(title, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6,
		fmt.Sprintf("Generated %s  |  %d assets", generatedAt.UTC().Format(time.RFC1123), len(assets)),
		"", 1, "L", false, 0, "")
	pdf.Ln(2)

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range exportHeader {
			pdf.CellFormat(pdfColumnWidths[i], 7, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}

	header()

	total := decimal.Zero
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()

	for i := range assets {
		if pdf.GetY()+6 > pageHeight-bottom-10 {
			pdf.AddPage()
			header()
		}

		if assets[i].Cost.Valid {
			total = total.Add(assets[i].Cost.Decimal)
		}

		for j, cell := range exportRow(&assets[i]) {
			pdf.CellFormat(pdfColumnWidths[j], 6, tr(truncate(cell, pdfColumnWidths[j])),
				"1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(pdfColumnWidths[0]+pdfColumnWidths[1]+pdfColumnWidths[2]+pdfColumnWidths[3],
		7, "Total value", "1", 0, "R", false, 0, "")
	pdf.CellFormat(pdfColumnWidths[4], 7, total.StringFixed(2), "1", 1, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}

	return nil
}

// truncate keeps text within a column, roughly two characters per mm at
// the table font size.
func truncate(s string, width float64) string {
	limit := int(width / 1.9)
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}

func ExportFilename(format string, now time.Time) string {
	return fmt.Sprintf("assets-%s.%s", now.Format(DateLayout), format)
}

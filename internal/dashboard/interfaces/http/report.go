package http

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	dashboard "equip-manager/internal/dashboard/domain"
)

// BuildCriticalPointsPDF renders the critical points listing.
func BuildCriticalPointsPDF(report dashboard.CriticalPoints) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Critical Measurement Points")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Reference date: %s", report.ReferenceDate))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Look-ahead (days): %d", report.Summary.Days))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Overdue: %d", report.Summary.Overdue))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Due soon: %d", report.Summary.DueSoon))
	pdf.Ln(8)

	writeSection(pdf, tr, "Overdue", report.Overdue)
	pdf.Ln(6)
	writeSection(pdf, tr, "Due soon", report.DueSoon)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSection(pdf *gofpdf.Fpdf, tr func(string) string, title string, rows []dashboard.CriticalPoint) {
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, title)
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(35, 6, "Tag", "1", 0, "C", false, 0, "")
	pdf.CellFormat(65, 6, "Point", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Site", "1", 0, "C", false, 0, "")
	pdf.CellFormat(55, 6, "Equipment", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Next calibration", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Days", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	if len(rows) == 0 {
		pdf.CellFormat(250, 6, "none", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		return
	}
	for _, row := range rows {
		pdf.CellFormat(35, 6, tr(row.Tag), "1", 0, "L", false, 0, "")
		pdf.CellFormat(65, 6, tr(row.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, tr(deref(row.SiteName)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 6, tr(equipmentLabel(row)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, row.NextCalibrationDate, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", row.DaysRemaining), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
}

func equipmentLabel(row dashboard.CriticalPoint) string {
	switch {
	case row.EquipmentSerial == nil:
		return ""
	case row.EquipmentName == nil:
		return *row.EquipmentSerial
	default:
		return fmt.Sprintf("%s (%s)", *row.EquipmentName, *row.EquipmentSerial)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Package xlsx reads and writes transfer sheets as Excel workbooks.
package xlsx

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	transfer "equip-manager/internal/transfer/domain"
)

// ContentType is the MIME type of written workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrEmptyWorkbook is returned when the first sheet has no header row.
var ErrEmptyWorkbook = errors.New("xlsx: workbook has no header row")

// ReadTable reads the first sheet. Cells are returned unformatted, so dates
// stored as numbers arrive as serial numbers.
func ReadTable(r io.Reader) (transfer.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return transfer.Table{}, fmt.Errorf("xlsx: open: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return transfer.Table{}, ErrEmptyWorkbook
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return transfer.Table{}, fmt.Errorf("xlsx: read %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return transfer.Table{}, ErrEmptyWorkbook
	}
	return transfer.Table{Headers: rows[0], Rows: rows[1:]}, nil
}

// WriteSheet renders sheet as a single-sheet workbook with a bold header.
func WriteSheet(sheet transfer.Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	name := sheet.Name
	if name == "" {
		name = "Sheet1"
	}
	f.SetSheetName("Sheet1", name)

	header := make([]any, len(sheet.Headers))
	for i, h := range sheet.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(name, 1, 1, bold); err != nil {
		return nil, err
	}

	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := row
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return nil, err
		}
	}

	if len(sheet.Headers) > 0 {
		last, err := excelize.ColumnNumberToName(len(sheet.Headers))
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(name, "A", last, 22); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

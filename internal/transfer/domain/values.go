package transfer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"equip-manager/internal/calibration"
)

var dateLayouts = []string{
	calibration.DateLayout,
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// NormalizeDate turns a spreadsheet date cell into YYYY-MM-DD. Accepted forms
// are YYYY-MM-DD, YYYY-MM-DD HH:MM:SS, DD/MM/YYYY and Excel serial numbers.
// A blank cell yields nil.
func NormalizeDate(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			s := calibration.FormatDate(t)
			return &s, nil
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial >= 1 && serial < 2958466 {
		t, err := excelize.ExcelDateToTime(math.Floor(serial), false)
		if err == nil {
			s := calibration.FormatDate(t)
			return &s, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", raw)
}

// ParseNumber reads an optional decimal; a comma decimal separator is accepted.
func ParseNumber(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", raw)
	}
	return &v, nil
}

// ParseWholeNumber reads an optional integer. Whole decimals such as "365.0"
// are accepted because spreadsheets store numbers as floats.
func ParseWholeNumber(raw string) (*int, error) {
	f, err := ParseNumber(raw)
	if err != nil || f == nil {
		return nil, err
	}
	if *f != math.Trunc(*f) {
		return nil, fmt.Errorf("invalid whole number %q", raw)
	}
	v := int(*f)
	return &v, nil
}

// NumberCell is the export cell for an optional number.
func NumberCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

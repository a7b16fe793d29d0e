// Package dashboard aggregates calibration data for reporting. Everything here
// is pure; the reader interface supplies the rows.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"equip-manager/internal/calibration"
)

// Totals counts the main records.
type Totals struct {
	Equipment    int `json:"equipment"`
	Points       int `json:"measurement_points"`
	Certificates int `json:"certificates"`
}

// Alerts counts points needing attention within Days of ReferenceDate.
type Alerts struct {
	Overdue int `json:"overdue"`
	DueSoon int `json:"due_soon"`
	Days    int `json:"days"`
}

// Summary is the dashboard overview.
type Summary struct {
	Totals        Totals `json:"totals"`
	Alerts        Alerts `json:"alerts"`
	ReferenceDate string `json:"reference_date"`
}

// Group is one row of a grouped breakdown.
type Group struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Statistics holds the grouped breakdowns.
type Statistics struct {
	EquipmentByManufacturer []Group `json:"equipment_by_manufacturer"`
	EquipmentByType         []Group `json:"equipment_by_type"`
	PointsBySite            []Group `json:"points_by_site"`
	CertificatesByStatus    []Group `json:"certificates_by_status"`
}

// MonthCount is one bucket of a schedule. Start is inclusive, End exclusive.
type MonthCount struct {
	Month int    `json:"month"`
	Start string `json:"start"`
	End   string `json:"end"`
	Count int    `json:"count"`
}

// Schedule counts next calibrations per month of Year.
type Schedule struct {
	Year   int          `json:"year"`
	Months []MonthCount `json:"months"`
	Total  int          `json:"total"`
}

// ScheduledPoint is the slice of a measurement point the alert listings need.
type ScheduledPoint struct {
	ID                  int64
	Tag                 string
	Name                string
	NextCalibrationDate *string
	SiteName            *string
	EquipmentSerial     *string
	EquipmentName       *string
}

// CriticalPoint is a point that is overdue or due soon.
type CriticalPoint struct {
	ID                  int64              `json:"id"`
	Tag                 string             `json:"tag"`
	Name                string             `json:"name"`
	NextCalibrationDate string             `json:"next_calibration_date"`
	DaysRemaining       int                `json:"days_remaining"`
	Status              calibration.Status `json:"calibration_status"`
	SiteName            *string            `json:"site"`
	EquipmentSerial     *string            `json:"equipment_serial"`
	EquipmentName       *string            `json:"equipment_name"`
}

// CriticalPoints lists overdue and due-soon points.
type CriticalPoints struct {
	Overdue       []CriticalPoint `json:"overdue"`
	DueSoon       []CriticalPoint `json:"due_soon"`
	Summary       Alerts          `json:"summary"`
	ReferenceDate string          `json:"reference_date"`
}

// RecentCertificate is a certificate row for the activity feed.
type RecentCertificate struct {
	ID              int64   `json:"id"`
	Number          string  `json:"number"`
	Revision        string  `json:"revision"`
	IssueDate       string  `json:"issue_date"`
	EquipmentSerial string  `json:"equipment_serial"`
	EquipmentName   *string `json:"equipment_name"`
	StatusName      *string `json:"status"`
}

// Performance measures how many scheduled points are on time.
type Performance struct {
	Scheduled  int     `json:"scheduled_points"`
	OnTime     int     `json:"on_time_points"`
	Overdue    int     `json:"overdue_points"`
	Percentage float64 `json:"percentage"`
}

// Reader loads the raw rows behind the aggregates.
type Reader interface {
	Totals(ctx context.Context) (Totals, error)
	NextCalibrationDates(ctx context.Context) ([]*string, error)
	// ScheduledPoints returns points whose well formed next date is on or
	// before through.
	ScheduledPoints(ctx context.Context, through string) ([]ScheduledPoint, error)
	// NextDatesBetween returns next dates in [from, to) by string comparison.
	NextDatesBetween(ctx context.Context, from, to string) ([]string, error)
	EquipmentByManufacturer(ctx context.Context) ([]Group, error)
	EquipmentByType(ctx context.Context) ([]Group, error)
	PointsBySite(ctx context.Context) ([]Group, error)
	CertificatesByStatus(ctx context.Context) ([]Group, error)
	RecentCertificates(ctx context.Context, limit int) ([]RecentCertificate, error)
}

// SortGroups drops empty groups and orders by count desc, then name asc.
func SortGroups(groups []Group) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if g.Count > 0 {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MonthRange returns the [start, end) date strings of month in year.
func MonthRange(year, month int) (string, string) {
	start := fmt.Sprintf("%04d-%02d-01", year, month)
	if month == 12 {
		return start, fmt.Sprintf("%04d-01-01", year+1)
	}
	return start, fmt.Sprintf("%04d-%02d-01", year, month+1)
}

// BuildSchedule buckets dates into the twelve months of year by string range.
func BuildSchedule(year int, dates []string) Schedule {
	s := Schedule{Year: year, Months: make([]MonthCount, 12)}
	for m := 1; m <= 12; m++ {
		start, end := MonthRange(year, m)
		s.Months[m-1] = MonthCount{Month: m, Start: start, End: end}
	}
	for _, d := range dates {
		for i := range s.Months {
			if d >= s.Months[i].Start && d < s.Months[i].End {
				s.Months[i].Count++
				s.Total++
				break
			}
		}
	}
	return s
}

// CountAlerts counts overdue and due-soon dates against today.
func CountAlerts(dates []*string, today time.Time, days int) Alerts {
	a := Alerts{Days: days}
	for _, d := range dates {
		switch calibration.EvaluateWithin(d, today, days) {
		case calibration.StatusOverdue:
			a.Overdue++
		case calibration.StatusDueSoon:
			a.DueSoon++
		}
	}
	return a
}

// ClassifyCritical splits points into overdue and due-soon lists, each
// ascending by next date with ties broken by tag.
func ClassifyCritical(points []ScheduledPoint, today time.Time, days int) CriticalPoints {
	out := CriticalPoints{
		Overdue:       []CriticalPoint{},
		DueSoon:       []CriticalPoint{},
		Summary:       Alerts{Days: days},
		ReferenceDate: calibration.FormatDate(today),
	}
	for _, p := range points {
		status := calibration.EvaluateWithin(p.NextCalibrationDate, today, days)
		if status != calibration.StatusOverdue && status != calibration.StatusDueSoon {
			continue
		}
		cp := CriticalPoint{
			ID:                  p.ID,
			Tag:                 p.Tag,
			Name:                p.Name,
			NextCalibrationDate: *p.NextCalibrationDate,
			DaysRemaining:       *calibration.DaysRemaining(p.NextCalibrationDate, today),
			Status:              status,
			SiteName:            p.SiteName,
			EquipmentSerial:     p.EquipmentSerial,
			EquipmentName:       p.EquipmentName,
		}
		if status == calibration.StatusOverdue {
			out.Overdue = append(out.Overdue, cp)
		} else {
			out.DueSoon = append(out.DueSoon, cp)
		}
	}
	sortCritical(out.Overdue)
	sortCritical(out.DueSoon)
	out.Summary.Overdue = len(out.Overdue)
	out.Summary.DueSoon = len(out.DueSoon)
	return out
}

func sortCritical(list []CriticalPoint) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].NextCalibrationDate != list[j].NextCalibrationDate {
			return list[i].NextCalibrationDate < list[j].NextCalibrationDate
		}
		return list[i].Tag < list[j].Tag
	})
}

// ComputePerformance counts points with a usable next date and how many of
// them are not overdue.
func ComputePerformance(dates []*string, today time.Time) Performance {
	var p Performance
	for _, d := range dates {
		status := calibration.Evaluate(d, today)
		if !status.Scheduled() {
			continue
		}
		p.Scheduled++
		if status == calibration.StatusOverdue {
			p.Overdue++
		} else {
			p.OnTime++
		}
	}
	if p.Scheduled > 0 {
		p.Percentage = math.Round(float64(p.OnTime)/float64(p.Scheduled)*10000) / 100
	}
	return p
}

// StatusCounts tallies every status, zeros included.
func StatusCounts(dates []*string, today time.Time, days int) map[string]int {
	counts := make(map[string]int, len(calibration.Statuses()))
	for _, s := range calibration.Statuses() {
		counts[string(s)] = 0
	}
	for _, d := range dates {
		counts[string(calibration.EvaluateWithin(d, today, days))]++
	}
	return counts
}

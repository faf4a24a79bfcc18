package normalize

import (
	"math"
	"strings"
	"time"
)

// ISODate is the layout every parsed date is rendered in.
const ISODate = "2006-01-02"

// excelEpoch is day zero of the 1900 date system as Excel actually counts it
// (the fictitious 1900-02-29 shifts the epoch back one day).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// Candidate layouts tried in order: dd/MM/yyyy, yyyy-MM-dd, MM/dd/yyyy,
// dd-MM-yyyy. Day and month accept one or two digits.
var dateLayouts = []string{
	"2/1/2006",
	"2006-1-2",
	"1/2/2006",
	"2-1-2006",
}

// Fallback layouts for ISO-ish timestamps.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	time.RFC1123,
	time.RFC1123Z,
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDate converts a date cell into "YYYY-MM-DD". It accepts time values,
// Excel serial day numbers and strings in the common spreadsheet layouts.
// It returns "" when the value cannot be read as a date; callers skip the row.
func ParseDate(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case time.Time:
		if d.IsZero() {
			return ""
		}
		return d.Format(ISODate)
	case *time.Time:
		if d == nil || d.IsZero() {
			return ""
		}
		return d.Format(ISODate)
	case float64:
		return fromSerial(d)
	case float32:
		return fromSerial(float64(d))
	case int:
		return fromSerial(float64(d))
	case int64:
		return fromSerial(float64(d))
	case string:
		return parseDateString(d)
	default:
		return ""
	}
}

// FromExcelSerial converts an Excel serial day number to a calendar date.
// Fractional days (time of day) are dropped.
func FromExcelSerial(serial float64) time.Time {
	return excelEpoch.AddDate(0, 0, int(math.Floor(serial)))
}

func fromSerial(serial float64) string {
	if serial == 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return ""
	}
	return FromExcelSerial(serial).Format(ISODate)
}

func parseDateString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ISODate)
		}
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ISODate)
		}
	}
	return ""
}

package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	minYear = 2000
	maxYear = 2050

	// serial 25569 is 1970-01-01 in spreadsheet day numbering
	unixEpochSerial = 25569
)

var (
	isoPrefix   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	dayMonthRe  = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})$`)
	serialRe    = regexp.MustCompile(`^\d{4,6}(\.\d+)?$`)
	leadingNum  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	numericRun  = regexp.MustCompile(`\d[\d.]*`)
	amountNoise = strings.NewReplacer(",", "", "₹", "", "$", "", " ", "")
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

var looseLayouts = []string{
	"02 Jan 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02 Jan 06",
	"02-Jan-06",
	"02/Jan/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 January 2006",
	"2006/01/02",
	"2006.01.02",
	"Mon Jan 2 2006",
	time.RFC1123,
}

// NormalizeDate turns a raw cell value into a UTC instant. It accepts
// time.Time, spreadsheet day serials as numbers or digit strings, ISO
// strings, and day-first D/M/Y strings. Anything outside 2000..2050 is
// treated as a misparse and rejected.
func NormalizeDate(raw any) (time.Time, bool) {
	var t time.Time
	switch v := raw.(type) {
	case time.Time:
		t = v.UTC()
	case float64:
		t = fromSerial(v)
	case int:
		t = fromSerial(float64(v))
	case string:
		var ok bool
		if t, ok = parseDateString(v); !ok {
			return time.Time{}, false
		}
	default:
		return time.Time{}, false
	}

	if t.IsZero() || t.Year() < minYear || t.Year() > maxYear {
		return time.Time{}, false
	}
	return t, true
}

func fromSerial(serial float64) time.Time {
	ms := math.Round((serial - unixEpochSerial) * 86400 * 1000)
	return time.UnixMilli(int64(ms)).Add(12 * time.Hour).UTC()
}

func parseDateString(raw string) (time.Time, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, `"`, ""))
	if s == "" {
		return time.Time{}, false
	}

	if isoPrefix.MatchString(s) {
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		t, err := time.Parse("2006-01-02", s[:10])
		return t, err == nil
	}

	if m := dayMonthRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month < 1 || month > 12 || day < 1 {
			return time.Time{}, false
		}
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if t.Day() != day {
			// 31/02 and friends
			return time.Time{}, false
		}
		return t, true
	}

	if serialRe.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, false
		}
		return fromSerial(f), true
	}

	for _, layout := range looseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// CleanAmount extracts an absolute magnitude from a money cell. Direction is
// never taken from the sign here. Unreadable input yields 0.
func CleanAmount(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return math.Abs(v)
	case int:
		return math.Abs(float64(v))
	case string:
		return cleanAmountString(v)
	default:
		return 0
	}
}

func cleanAmountString(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}

	if m := leadingNum.FindString(amountNoise.Replace(s)); m != "" {
		if f, err := strconv.ParseFloat(m, 64); err == nil {
			return math.Abs(f)
		}
	}

	if m := numericRun.FindString(s); m != "" {
		if f, err := strconv.ParseFloat(strings.TrimRight(m, "."), 64); err == nil {
			return f
		}
	}
	return 0
}

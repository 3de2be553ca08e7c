package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateKeyLayout is the layout of a CanonicalDateKey.
const DateKeyLayout = "2006-01-02"

// DateStrategy turns one shape of raw date value into a CanonicalDateKey.
type DateStrategy struct {
	Name  string
	Parse func(raw any) (string, bool)
}

// DateStrategies is the fixed order in which Date tries each representation.
var DateStrategies = []DateStrategy{
	{Name: "dotted", Parse: parseDotted},
	{Name: "native", Parse: parseNative},
	{Name: "layout", Parse: parseLayout},
	{Name: "serial", Parse: parseSerial},
}

// TextDateLayouts are the textual forms accepted by the layout strategy.
var TextDateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"2006-1-2 15:04:05",
	"2006/1/2 15:04:05",
	time.RFC3339,
}

var (
	dottedDate = regexp.MustCompile(`^(\d{4})\.(\d{1,2})\.(\d{1,2})$`)
	strictKey  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// serialEpoch is 1900-01-01 minus two days. Spreadsheets count 1900 as a
	// leap year, and the extra day plus one-based numbering lands here. The
	// offset exists only for compatibility with that format.
	serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
)

const maxSerialDay = 2958465 // 9999-12-31

// Date converts a raw cell value into a CanonicalDateKey, trying each entry of
// DateStrategies in order. It reports false when no strategy accepts the value.
func Date(raw any) (string, bool) {
	for _, strategy := range DateStrategies {
		if key, ok := strategy.Parse(raw); ok {
			return key, true
		}
	}
	return "", false
}

// IsDateKey reports whether s is a strict YYYY-MM-DD calendar date.
func IsDateKey(s string) bool {
	if !strictKey.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateKeyLayout, s)
	return err == nil
}

// DisplayDate renders a date key in the dotted spreadsheet form, 2024-06-10 as
// 2024.6.10. Values that are not date keys are returned unchanged.
func DisplayDate(key string) string {
	t, err := time.Parse(DateKeyLayout, key)
	if err != nil || !strictKey.MatchString(key) {
		return key
	}
	return fmt.Sprintf("%d.%d.%d", t.Year(), int(t.Month()), t.Day())
}

// KeyOf formats t as a date key.
func KeyOf(t time.Time) string {
	return t.Format(DateKeyLayout)
}

func parseDotted(raw any) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	m := dottedDate.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return KeyOf(t), true
}

func parseNative(raw any) (string, bool) {
	switch v := raw.(type) {
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return KeyOf(v), true
	case *time.Time:
		if v == nil || v.IsZero() {
			return "", false
		}
		return KeyOf(*v), true
	}
	return "", false
}

func parseLayout(raw any) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	for _, layout := range TextDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return KeyOf(t), true
		}
	}
	return "", false
}

func parseSerial(raw any) (string, bool) {
	var serial float64
	switch v := raw.(type) {
	case int:
		serial = float64(v)
	case int64:
		serial = float64(v)
	case float64:
		serial = v
	case float32:
		serial = float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return "", false
		}
		serial = f
	default:
		return "", false
	}

	if math.IsNaN(serial) || serial < 1 || serial >= maxSerialDay+1 {
		return "", false
	}
	return KeyOf(serialEpoch.AddDate(0, 0, int(math.Floor(serial)))), true
}

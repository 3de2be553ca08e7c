// Package normalize canonicalizes the free-form date and time cells found in
// the schedule spreadsheet.
//
// All functions are pure. Malformed input is never rejected: times pass through
// verbatim and dates report ok=false so callers can skip the record.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

// RangeSeparator joins the two halves of a canonical time range.
const RangeSeparator = " - "

var (
	// Full-width colon, dash variants and tildes all collapse onto ASCII.
	separatorReplacer = strings.NewReplacer(
		"：", ":",
		"—", "-",
		"–", "-",
		"‐", "-",
		"‑", "-",
		"−", "-",
		"－", "-",
		"~", "-",
		"～", "-",
	)

	hourMinutePrefix = regexp.MustCompile(`^\d{1,2}:\d{2}`)
	bareHour         = regexp.MustCompile(`^\d{1,2}$`)
)

// Time normalizes a raw time cell into a CanonicalTimeSpec.
//
//	"9：00~10:00" -> "9:00 - 10:00"
//	"14"         -> "14:00"
//	"全天"        -> "全天"
//
// A string with a dash is split once on the first dash. When either half is
// empty after trimming, the whole string is handled as a single time instead.
func Time(raw string) string {
	s := separatorReplacer.Replace(raw)

	if start, end, found := strings.Cut(s, "-"); found {
		start, end = strings.TrimSpace(start), strings.TrimSpace(end)
		if start != "" && end != "" {
			return SingleTime(start) + RangeSeparator + SingleTime(end)
		}
	}

	return SingleTime(strings.TrimSpace(s))
}

// TimeOf normalizes an untyped cell value. Anything that is not a string
// normalizes to the empty string.
func TimeOf(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return Time(s)
}

// SingleTime normalizes one time point. A bare hour gains ":00" with its digits
// kept as written; strings starting with H:MM or HH:MM pass through, as does
// anything else.
func SingleTime(s string) string {
	if hourMinutePrefix.MatchString(s) {
		return s
	}
	if bareHour.MatchString(s) {
		return s + ":00"
	}
	return s
}

// TimeToMinutes returns the sort key of a time spec: minutes since midnight of
// its start. It returns 0 for anything it cannot parse, so malformed and
// all-day entries sort first. The key is never shown to the user.
func TimeToMinutes(spec string) int {
	start, _, _ := strings.Cut(spec, "-")
	start = strings.TrimSpace(start)

	if strings.Contains(start, ":") {
		parts := strings.Split(start, ":")
		hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return 0
		}
		minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0
		}
		return hours*60 + minutes
	}

	if start != "" && isDigits(start) {
		hours, err := strconv.Atoi(start)
		if err != nil {
			return 0
		}
		return hours * 60
	}

	return 0
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DefaultSpan is the length given to a single time point with no end.
const DefaultSpan = 60

var clock = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// Span parses a canonical time spec into start and end minutes since
// midnight. A single time point lasts DefaultSpan minutes. The end may pass
// 24:00 for a range that crosses midnight. ok is false for all-day and
// malformed specs.
func Span(spec string) (start, end int, ok bool) {
	s := Time(spec)
	first, second, isRange := strings.Cut(s, RangeSeparator)

	start, ok = clockMinutes(first)
	if !ok {
		return 0, 0, false
	}
	if !isRange {
		return start, start + DefaultSpan, true
	}

	end, ok = clockMinutes(second)
	if !ok {
		return 0, 0, false
	}
	if end <= start {
		end += 24 * 60
	}
	return start, end, true
}

func clockMinutes(s string) (int, bool) {
	m := clock.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	if hours > 23 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}

// FormatClock renders minutes since midnight as H:MM, wrapping past 24:00.
func FormatClock(minutes int) string {
	minutes %= 24 * 60
	return strconv.Itoa(minutes/60) + ":" + twoDigits(minutes%60)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

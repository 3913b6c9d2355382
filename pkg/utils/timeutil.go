package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ICT is Indochina Time (UTC+7), the home timezone of the app's users.
var ICT *time.Location

func init() {
	var err error
	ICT, err = time.LoadLocation("Asia/Bangkok")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		ICT = time.FixedZone("ICT", 7*60*60)
	}
}

// NowICT returns the current time in ICT.
func NowICT() time.Time {
	return time.Now().In(ICT)
}

// thaiMonths holds the abbreviated Thai month names, indexed by time.Month.
var thaiMonths = [...]string{
	"",
	"ม.ค.", "ก.พ.", "มี.ค.", "เม.ย.", "พ.ค.", "มิ.ย.",
	"ก.ค.", "ส.ค.", "ก.ย.", "ต.ค.", "พ.ย.", "ธ.ค.",
}

// ThaiMonth returns the abbreviated Thai name for m, or "" if m is out of range.
func ThaiMonth(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return thaiMonths[m]
}

// FormatThai formats t as "D <thai-month> YYYY, HH:MM", e.g. "5 มี.ค. 2024, 09:07".
// The wall clock is read in t's own location. The zero time formats as "".
func FormatThai(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d %s %d, %02d:%02d",
		t.Day(), ThaiMonth(t.Month()), t.Year(), t.Hour(), t.Minute())
}

// FormatDateTimeICT formats a time.Time to "2006-01-02 15:04:05 ICT".
func FormatDateTimeICT(t time.Time) string {
	return t.In(ICT).Format("2006-01-02 15:04:05 ICT")
}

// ErrBadTimestamp is returned by ParseISO when no layout matches.
var ErrBadTimestamp = errors.New("utils: unrecognised ISO-8601 timestamp")

// isoLayouts are tried in order. Layouts without a zone are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseISO parses an ISO-8601 timestamp as stored by the ingestion process.
// A trailing "Z" means UTC. Naive timestamps are taken to be UTC.
func ParseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrBadTimestamp
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

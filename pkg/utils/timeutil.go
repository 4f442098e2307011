package utils

import (
	"fmt"
	"strings"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// tz database missing
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IST)
}

// FormatDateTimeIST formats a time.Time to "2006-01-02 15:04:05 IST".
func FormatDateTimeIST(t time.Time) string {
	return t.In(IST).Format("2006-01-02 15:04:05 IST")
}

// ParsePeriod parses a statement column header such as "Mar 2024" or
// "Dec 2023" into the last day of that month. "TTM" and unknown headers
// report ok=false.
func ParsePeriod(label string) (time.Time, bool) {
	t, err := time.ParseInLocation("Jan 2006", strings.TrimSpace(label), IST)
	if err != nil {
		return time.Time{}, false
	}
	return t.AddDate(0, 1, -1), true
}

// FiscalYear returns the Indian fiscal year label ("FY24") a period
// end date belongs to. The fiscal year ends in March.
func FiscalYear(t time.Time) string {
	year := t.Year()
	if t.Month() > time.March {
		year++
	}
	return fmt.Sprintf("FY%02d", year%100)
}

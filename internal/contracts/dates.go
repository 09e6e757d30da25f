package contracts

import "time"

// KST is the exchange's local time zone
var KST = time.FixedZone("KST", 9*60*60)

// DateOf returns t's calendar date as midnight UTC.
// Trading days are compared as dates only.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current KST calendar date
func Today() time.Time {
	return DateOf(time.Now().In(KST))
}

// ParseDate parses YYYYMMDD or YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	layout := "20060102"
	if len(s) == len("2006-01-02") {
		layout = "2006-01-02"
	}
	return time.Parse(layout, s)
}

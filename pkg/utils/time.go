package utils

import "time"

// Now returns the current time in UTC timezone
func Now() time.Time {
	return time.Now().UTC()
}

// FormatISO8601 formats a time.Time to ISO8601 format in UTC
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ISOWithOffset formats a time as an ISO-8601 timestamp with an explicit
// zone offset in the given location, e.g. "2026-02-03T13:45:12-08:00".
// Stored timestamps use the property's local zone so sheet rows read
// naturally for on-site staff.
func ISOWithOffset(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02T15:04:05-07:00")
}

// NowISOWithOffset returns the current time formatted by ISOWithOffset.
func NowISOWithOffset(loc *time.Location) string {
	return ISOWithOffset(time.Now(), loc)
}

// LoadLocationOrUTC resolves an IANA timezone name, falling back to UTC
// when the name is empty or unknown.
func LoadLocationOrUTC(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

package services

import "time"

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// nowMillis is the current time at the precision timestamps are stored with.
func nowMillis() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

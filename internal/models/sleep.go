package models

import "time"

// SleepEntry records one night. Date is the calendar day of StartTime and,
// together with UserID, determines the document id.
type SleepEntry struct {
	ID            string    `json:"-"`
	UserID        string    `json:"userId"`
	Date          string    `json:"date"` // YYYY-MM-DD format
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	DurationHours float64   `json:"durationHours"`
	Quality       int       `json:"quality"` // 1-5
}

// SleepEntryID is the deterministic per-night document id.
func SleepEntryID(userID, day string) string {
	return userID + "_" + day
}

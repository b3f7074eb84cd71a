package training

import "time"

// PowerBucketsSecs are the durations tracked as personal bests.
var PowerBucketsSecs = []int{5, 30, 60, 300, 1200, 3600}

// PowerPB is the best power for one duration bucket plus the best it replaced.
type PowerPB struct {
	Duration           int        `json:"duration"` // seconds
	Power              float64    `json:"power"`    // watts
	RecordedAt         time.Time  `json:"recordedAt"`
	PreviousPower      *float64   `json:"previousPower"`
	PreviousRecordedAt *time.Time `json:"previousRecordedAt"`
}

// CarryOver returns the record to store when next replaces the stored best.
// The previous fields move one step back only when the power changed.
func CarryOver(stored *PowerPB, next PowerPB) PowerPB {
	next.PreviousPower = nil
	next.PreviousRecordedAt = nil
	if stored == nil {
		return next
	}

	if stored.Power != next.Power {
		power := stored.Power
		recordedAt := stored.RecordedAt
		next.PreviousPower = &power
		next.PreviousRecordedAt = &recordedAt
		return next
	}

	next.PreviousPower = stored.PreviousPower
	next.PreviousRecordedAt = stored.PreviousRecordedAt
	return next
}

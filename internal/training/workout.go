package training

import (
	"errors"
	"time"
)

var ErrWorkoutNotFound = errors.New("workout not found")

// PlannedIDPrefix marks workouts that only exist as a plan so far.
const PlannedIDPrefix = "event-"

// Workout is a planned session, a completed session, or both merged into one
// row keyed by the completed activity's id.
type Workout struct {
	ID          int       `json:"id"`
	ExternalID  string    `json:"externalId"`
	Date        time.Time `json:"date"`
	Title       string    `json:"title"`
	Sport       string    `json:"sport"`
	Description *string   `json:"description"`
	CoachNotes  *string   `json:"coachNotes"`
	IsCompleted bool      `json:"isCompleted"`

	// plan
	PlannedTitle    *string  `json:"plannedTitle"`
	PlannedDuration *int     `json:"plannedDuration"` // minutes
	PlannedTSS      *float64 `json:"plannedTss"`

	// performance, set only for completed sessions
	Duration        *int     `json:"duration"` // minutes
	Distance        *float64 `json:"distance"` // km
	TSS             *float64 `json:"tss"`
	IntensityFactor *float64 `json:"intensityFactor"`
	NormalizedPower *float64 `json:"normalizedPower"`
	AveragePower    *float64 `json:"averagePower"`
	MaxPower        *float64 `json:"maxPower"`
	AverageHR       *int     `json:"averageHr"`
	MaxHR           *int     `json:"maxHr"`
	Calories        *float64 `json:"calories"`
	ElevationGain   *float64 `json:"elevationGain"`
}

// PlannedUpdate carries the descriptive plan fields folded into a completed
// workout. Nil fields leave the stored value untouched.
type PlannedUpdate struct {
	PlannedTitle    *string
	Description     *string
	CoachNotes      *string
	PlannedDuration *int
	PlannedTSS      *float64
}

func PlannedExternalID(eventID int64) string {
	return PlannedIDPrefix + itoa(eventID)
}

package intervals

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID accepts both string and numeric JSON ids; activity ids are strings
// like "i4201337" but older payloads carry plain numbers.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Activity is a completed session as returned by /athlete/{id}/activities.
type Activity struct {
	ID                   ID       `json:"id"`
	StartDateLocal       string   `json:"start_date_local"`
	Type                 string   `json:"type"`
	Name                 string   `json:"name"`
	Description          *string  `json:"description"`
	MovingTime           *float64 `json:"moving_time"` // seconds
	Distance             *float64 `json:"distance"`    // meters
	ICUTrainingLoad      *float64 `json:"icu_training_load"`
	ICUIntensity         *float64 `json:"icu_intensity"`
	WeightedAverageWatts *float64 `json:"weighted_average_watts"`
	AverageWatts         *float64 `json:"average_watts"`
	MaxWatts             *float64 `json:"max_watts"`
	AverageHeartrate     *float64 `json:"average_heartrate"`
	MaxHeartrate         *float64 `json:"max_heartrate"`
	Calories             *float64 `json:"calories"`
	TotalElevationGain   *float64 `json:"total_elevation_gain"`
}

// Event is a calendar entry; only category WORKOUT is a planned session.
type Event struct {
	ID              int64    `json:"id"`
	StartDateLocal  string   `json:"start_date_local"`
	Category        string   `json:"category"`
	Name            string   `json:"name"`
	Description     *string  `json:"description"`
	CoachNotes      *string  `json:"coach_notes"`
	Type            string   `json:"type"`
	MovingTime      *float64 `json:"moving_time"` // seconds
	ICUTrainingLoad *float64 `json:"icu_training_load"`
}

const CategoryWorkout = "WORKOUT"

func (e Event) IsWorkout() bool {
	return e.Category == CategoryWorkout
}

// Wellness is a daily sample, its id is the ISO date.
type Wellness struct {
	ID      string   `json:"id"`
	CTL     *float64 `json:"ctl"`
	ATL     *float64 `json:"atl"`
	CTLLoad *float64 `json:"ctlLoad"`
	ATLLoad *float64 `json:"atlLoad"`
}

// PowerCurve holds parallel secs/watts/activity_id arrays per curve and a
// lookup of the activities referenced by them.
type PowerCurve struct {
	List       []Curve                  `json:"list"`
	Activities map[string]CurveActivity `json:"activities"`
}

type Curve struct {
	Secs       []int      `json:"secs"`
	Watts      []*float64 `json:"watts"`
	ActivityID []*string  `json:"activity_id"`
}

type CurveActivity struct {
	ID             ID     `json:"id"`
	StartDateLocal string `json:"start_date_local"`
}

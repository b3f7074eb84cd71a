package training

import (
	"fmt"
	"math"
	"time"

	"github.com/2beens/healthdash/internal/intervals"
	"github.com/2beens/healthdash/pkg"
)

const (
	untitledActivity = "Untitled"
	untitledPlan     = "Planned workout"
	unknownSport     = "Unknown"
)

// MapActivity converts a completed provider activity. Absent optional values
// stay nil rather than becoming zero.
func MapActivity(a intervals.Activity) (Workout, error) {
	date, err := ParseLocalTimestamp(a.StartDateLocal)
	if err != nil {
		return Workout{}, fmt.Errorf("activity %s: %w", a.ID, err)
	}

	return Workout{
		ExternalID:      a.ID.String(),
		Date:            date,
		Title:           firstNonEmpty(a.Name, untitledActivity),
		Sport:           firstNonEmpty(a.Type, unknownSport),
		Description:     a.Description,
		IsCompleted:     true,
		Duration:        secondsToMinutes(a.MovingTime),
		Distance:        metersToKm(a.Distance),
		TSS:             a.ICUTrainingLoad,
		IntensityFactor: a.ICUIntensity,
		NormalizedPower: a.WeightedAverageWatts,
		AveragePower:    a.AverageWatts,
		MaxPower:        a.MaxWatts,
		AverageHR:       roundedInt(a.AverageHeartrate),
		MaxHR:           roundedInt(a.MaxHeartrate),
		Calories:        a.Calories,
		ElevationGain:   a.TotalElevationGain,
	}, nil
}

// MapEvent converts a planned provider event into a planned-only workout.
func MapEvent(e intervals.Event) (Workout, error) {
	date, err := ParseLocalTimestamp(e.StartDateLocal)
	if err != nil {
		return Workout{}, fmt.Errorf("event %d: %w", e.ID, err)
	}

	title := firstNonEmpty(e.Name, untitledPlan)
	return Workout{
		ExternalID:      PlannedExternalID(e.ID),
		Date:            date,
		Title:           title,
		Sport:           firstNonEmpty(e.Type, e.Category, unknownSport),
		Description:     e.Description,
		CoachNotes:      e.CoachNotes,
		IsCompleted:     false,
		PlannedTitle:    &title,
		PlannedDuration: secondsToMinutes(e.MovingTime),
		PlannedTSS:      e.ICUTrainingLoad,
	}, nil
}

// EventSport is the sport a plan is matched on, its type or else its category.
func EventSport(e intervals.Event) string {
	return firstNonEmpty(e.Type, e.Category)
}

// MapPlannedUpdate picks the plan fields that are folded into a matched activity.
func MapPlannedUpdate(e intervals.Event) PlannedUpdate {
	update := PlannedUpdate{
		Description:     e.Description,
		CoachNotes:      e.CoachNotes,
		PlannedDuration: secondsToMinutes(e.MovingTime),
		PlannedTSS:      e.ICUTrainingLoad,
	}
	if e.Name != "" {
		update.PlannedTitle = pkg.Ptr(e.Name)
	}
	return update
}

// MapWellness derives the daily metric. CTL/ATL fall back to the *Load
// fields and then to zero. TSB is recomputed.
func MapWellness(w intervals.Wellness) (FitnessMetric, error) {
	date, err := ParseDate(w.ID)
	if err != nil {
		return FitnessMetric{}, fmt.Errorf("wellness: %w", err)
	}
	ctl := firstValue(w.CTL, w.CTLLoad)
	atl := firstValue(w.ATL, w.ATLLoad)
	return NewFitnessMetric(date, ctl, atl), nil
}

// MapPowerBests picks, for each tracked bucket, the highest watts across all
// curves and the date of the activity that set it. Buckets without a data
// point, or whose activity date is unknown, are left out.
func MapPowerBests(curve *intervals.PowerCurve) []PowerPB {
	if curve == nil {
		return nil
	}

	bests := make([]PowerPB, 0, len(PowerBucketsSecs))
	for _, bucket := range PowerBucketsSecs {
		var best *PowerPB
		for _, c := range curve.List {
			idx := indexOf(c.Secs, bucket)
			if idx < 0 || idx >= len(c.Watts) || c.Watts[idx] == nil || *c.Watts[idx] <= 0 {
				continue
			}
			watts := *c.Watts[idx]
			if best != nil && watts <= best.Power {
				continue
			}

			recordedAt, ok := curveActivityDate(curve, c, idx)
			if !ok {
				continue
			}
			best = &PowerPB{
				Duration:   bucket,
				Power:      watts,
				RecordedAt: recordedAt,
			}
		}
		if best != nil {
			bests = append(bests, *best)
		}
	}
	return bests
}

func curveActivityDate(curve *intervals.PowerCurve, c intervals.Curve, idx int) (_ time.Time, ok bool) {
	if idx >= len(c.ActivityID) || c.ActivityID[idx] == nil {
		return time.Time{}, false
	}
	activity, found := curve.Activities[*c.ActivityID[idx]]
	if !found {
		return time.Time{}, false
	}
	recordedAt, err := ParseLocalTimestamp(activity.StartDateLocal)
	if err != nil {
		return time.Time{}, false
	}
	return recordedAt, true
}

func indexOf(values []int, v int) int {
	for i := range values {
		if values[i] == v {
			return i
		}
	}
	return -1
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstValue(values ...*float64) float64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

// zero counts as absent for durations, distances and heart rates
func secondsToMinutes(seconds *float64) *int {
	if seconds == nil || *seconds == 0 {
		return nil
	}
	return pkg.Ptr(int(math.Round(*seconds / 60)))
}

func metersToKm(meters *float64) *float64 {
	if meters == nil || *meters == 0 {
		return nil
	}
	return pkg.Ptr(pkg.RoundTo(*meters/1000, 2))
}

func roundedInt(v *float64) *int {
	if v == nil || *v == 0 {
		return nil
	}
	return pkg.Ptr(int(math.Round(*v)))
}

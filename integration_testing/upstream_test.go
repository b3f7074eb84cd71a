//go:build integration_test || all_tests

package integration_testing

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2beens/healthdash/internal/training"
)

// fakeIntervals serves a fixed training week around today: a completed ride
// today matching a planned ride, one more planned ride next week, a wellness
// sample and a power curve.
type fakeIntervals struct {
	mu       sync.Mutex
	bodies   map[string]string
	failFeed string
	requests atomic.Int64
}

func newFakeIntervals(now time.Time) *fakeIntervals {
	today := training.Today(now, time.UTC)
	todayStr := today.Format(training.DateLayout)
	nextMonday := training.NextWeek(today).Start.Format(training.DateLayout)

	return &fakeIntervals{
		bodies: map[string]string{
			"/athlete/" + testAthleteID + "/activities": fmt.Sprintf(`[
				{"id": "i9001", "start_date_local": "%sT07:30:00", "type": "VirtualRide", "name": "Zwift - Watopia",
				 "moving_time": 3660, "distance": 35250.4, "icu_training_load": 72, "icu_intensity": 0.84,
				 "weighted_average_watts": 231, "average_watts": 214, "max_watts": 655,
				 "average_heartrate": 142.4, "max_heartrate": 171.6, "calories": 812, "total_elevation_gain": 320}
			]`, todayStr),
			"/athlete/" + testAthleteID + "/events": fmt.Sprintf(`[
				{"id": 501, "start_date_local": "%sT00:00:00", "category": "WORKOUT", "type": "Ride",
				 "name": "Sweet Spot 3x12", "description": "3x12min @ 90%%", "coach_notes": "stay seated",
				 "moving_time": 3600, "icu_training_load": 70},
				{"id": 502, "start_date_local": "%sT00:00:00", "category": "WORKOUT", "type": "Ride",
				 "name": "Endurance 2h", "moving_time": 7200, "icu_training_load": 95},
				{"id": 503, "start_date_local": "%sT00:00:00", "category": "NOTE", "name": "Rest week soon"}
			]`, todayStr, nextMonday, nextMonday),
			"/athlete/" + testAthleteID + "/wellness": fmt.Sprintf(`[
				{"id": "%s", "ctl": 61.4, "atl": 70.2}
			]`, todayStr),
			"/athlete/" + testAthleteID + "/power-curves": fmt.Sprintf(`{
				"list": [{"secs": [5, 30, 60, 300, 1200, 3600], "watts": [902, 611, 455, 318, 281, 249],
				          "activity_id": ["i9001", "i9001", "i9001", "i9001", "i9001", "i9001"]}],
				"activities": {"i9001": {"id": "i9001", "start_date_local": "%sT07:30:00"}}
			}`, todayStr),
		},
	}
}

func (f *fakeIntervals) setFailingFeed(feed string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFeed = feed
}

func (f *fakeIntervals) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)

	user, pass, ok := r.BasicAuth()
	if !ok || user != "API_KEY" || pass != testIntervalsKey {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	body, found := f.bodies[r.URL.Path]
	failing := f.failFeed != "" && strings.HasSuffix(r.URL.Path, "/"+f.failFeed)
	f.mu.Unlock()

	if failing {
		http.Error(w, "upstream maintenance", http.StatusServiceUnavailable)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

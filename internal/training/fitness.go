package training

import (
	"time"

	"github.com/2beens/healthdash/pkg"
)

// FitnessMetric is the daily training load snapshot, one per date.
type FitnessMetric struct {
	Date time.Time `json:"date"`
	CTL  float64   `json:"ctl"`
	ATL  float64   `json:"atl"`
	TSB  float64   `json:"tsb"`
}

func NewFitnessMetric(date time.Time, ctl, atl float64) FitnessMetric {
	return FitnessMetric{
		Date: date,
		CTL:  ctl,
		ATL:  atl,
		TSB:  FormTSB(ctl, atl),
	}
}

// FormTSB is always derived, never taken from upstream.
func FormTSB(ctl, atl float64) float64 {
	return pkg.RoundTo(ctl-atl, 1)
}

type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

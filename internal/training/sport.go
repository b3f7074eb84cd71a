package training

import (
	"strconv"
	"strings"
)

var sportFolds = map[string]string{
	"virtualride": "ride",
	"virtualrun":  "run",
}

// NormalizeSport folds indoor variants onto their outdoor sport so a trainer
// ride still matches a plan written for a ride.
func NormalizeSport(sport string) string {
	s := strings.ToLower(strings.TrimSpace(sport))
	if folded, ok := sportFolds[s]; ok {
		return folded
	}
	return s
}

// LocalDate is the calendar day of a provider local timestamp.
func LocalDate(startDateLocal string) string {
	if len(startDateLocal) < 10 {
		return startDateLocal
	}
	return startDateLocal[:10]
}

// MatchKey identifies the calendar slot used to pair plans with activities.
func MatchKey(startDateLocal, sport string) string {
	return LocalDate(startDateLocal) + ":" + NormalizeSport(sport)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

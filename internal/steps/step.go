package steps

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/healthdash/internal/training"
)

const DefaultSource = "healthkit"

var ErrInvalidEntry = errors.New("step entry requires a date and a non-negative step count")

// StepCount is the daily step total, one per date.
type StepCount struct {
	Date   time.Time `json:"date"`
	Steps  int       `json:"steps"`
	Source string    `json:"source"`
}

type stepEntry struct {
	Date   *string `json:"date"`
	Steps  *int    `json:"steps"`
	Source *string `json:"source"`
}

// ParseEntries reads either a single entry object or an array of them.
// Every entry is validated before any is returned.
func ParseEntries(body []byte) ([]StepCount, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrInvalidEntry
	}

	var entries []stepEntry
	if body[0] == '[' {
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEntry, err)
		}
	} else {
		var entry stepEntry
		if err := json.Unmarshal(body, &entry); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEntry, err)
		}
		entries = []stepEntry{entry}
	}

	counts := make([]StepCount, 0, len(entries))
	for i, entry := range entries {
		if entry.Date == nil || *entry.Date == "" || entry.Steps == nil || *entry.Steps < 0 {
			return nil, ErrInvalidEntry
		}
		date, err := training.ParseDate(*entry.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidEntry, i, err)
		}

		source := DefaultSource
		if entry.Source != nil && *entry.Source != "" {
			source = *entry.Source
		}
		counts = append(counts, StepCount{
			Date:   date,
			Steps:  *entry.Steps,
			Source: source,
		})
	}
	return counts, nil
}

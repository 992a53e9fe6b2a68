package overlay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/vesselware/voyagelog/internal/trips"
)

// Annotation is a hand-corrected display state for one event, keyed by
// the event's timestamp
type Annotation struct {
	Time  string `json:"time"`
	Value string `json:"value"`
}

// LoadAnnotations reads the annotation overlay from a JSON file. A
// missing path is treated as "no overlay".
func LoadAnnotations(path string) ([]Annotation, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading annotations %s: %w", path, err)
	}

	var annotations []Annotation
	if err := json.Unmarshal(raw, &annotations); err != nil {
		return nil, fmt.Errorf("error parsing annotations %s: %w", path, err)
	}
	return annotations, nil
}

// SaveAnnotations writes the annotation overlay back to disk
func SaveAnnotations(path string, annotations []Annotation) error {
	raw, err := json.MarshalIndent(annotations, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding annotations: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("error writing annotations %s: %w", path, err)
	}
	return nil
}

// ApplyAnnotations overrides event states from the overlay. The
// observed state is preserved under OriginalState so the correction is
// reversible.
func ApplyAnnotations(tripList []*trips.Trip, annotations []Annotation) {
	if len(annotations) == 0 {
		return
	}

	byTime := make(map[string]string, len(annotations))
	for _, a := range annotations {
		byTime[a.Time] = a.Value
	}

	for _, trip := range tripList {
		for _, event := range trip.Events {
			value, ok := byTime[event.Time.UTC().Format(time.RFC3339)]
			if !ok || value == event.State {
				continue
			}
			if event.OriginalState == "" {
				event.OriginalState = event.State
			}
			event.State = value
		}
	}
}

// Package overlay applies optional external corrections to computed
// trips: a manually kept harbor log and per-event annotations.
package overlay

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vesselware/voyagelog/internal/trips"
)

// DefaultManualLogTolerance is how far a manual log entry's boundary may
// be from a computed trip boundary and still apply to that trip.
const DefaultManualLogTolerance = 60 * time.Minute

// ManualEntry is one row of an externally recorded trip log
type ManualEntry struct {
	Start time.Time
	End   time.Time
	From  string
	To    string
}

type yamlManualEntry struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	From  string `yaml:"from,omitempty"`
	To    string `yaml:"to,omitempty"`
}

// LoadManualLog reads a manual trip log from a YAML or CSV file. A
// missing path is treated as "no overlay" and returns an empty set.
func LoadManualLog(path string) ([]ManualEntry, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading manual log %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseManualCSV(path, raw)
	default:
		return parseManualYAML(path, raw)
	}
}

func parseManualYAML(path string, raw []byte) ([]ManualEntry, error) {
	var rows []yamlManualEntry
	if err := yaml.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("error parsing manual log %s: %w", path, err)
	}

	entries := make([]ManualEntry, 0, len(rows))
	for i, row := range rows {
		entry, err := manualEntry(row.Start, row.End, row.From, row.To)
		if err != nil {
			return nil, fmt.Errorf("manual log %s entry %d: %w", path, i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseManualCSV(path string, raw []byte) ([]ManualEntry, error) {
	records, err := csv.NewReader(strings.NewReader(string(raw))).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error parsing manual log %s: %w", path, err)
	}

	var entries []ManualEntry
	for i, record := range records {
		if i == 0 && len(record) > 0 && strings.EqualFold(record[0], "start") {
			// Header row
			continue
		}
		if len(record) < 4 {
			return nil, fmt.Errorf("manual log %s row %d: %d columns, want 4 (start,end,from,to)", path, i+1, len(record))
		}
		entry, err := manualEntry(record[0], record[1], record[2], record[3])
		if err != nil {
			return nil, fmt.Errorf("manual log %s row %d: %w", path, i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func manualEntry(start, end, from, to string) (ManualEntry, error) {
	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(start))
	if err != nil {
		return ManualEntry{}, fmt.Errorf("bad start time %q: %w", start, err)
	}
	endTime, err := time.Parse(time.RFC3339, strings.TrimSpace(end))
	if err != nil {
		return ManualEntry{}, fmt.Errorf("bad end time %q: %w", end, err)
	}
	return ManualEntry{
		Start: startTime,
		End:   endTime,
		From:  strings.TrimSpace(from),
		To:    strings.TrimSpace(to),
	}, nil
}

// ApplyManualLog overrides trip locations from manual log entries whose
// boundaries fall within tolerance of the computed trip boundaries.
// Matched locations are marked authoritative so the geocoder leaves
// them alone.
func ApplyManualLog(tripList []*trips.Trip, entries []ManualEntry, tolerance time.Duration) {
	if tolerance == 0 {
		tolerance = DefaultManualLogTolerance
	}

	for _, trip := range tripList {
		for _, entry := range entries {
			if !withinTolerance(entry.Start, trip.Start, tolerance) {
				continue
			}
			if trip.End != nil && !withinTolerance(entry.End, *trip.End, tolerance) {
				continue
			}
			if entry.From != "" {
				trip.StartLocation = entry.From
				trip.StartLocationManual = true
			}
			if entry.To != "" {
				trip.EndLocation = entry.To
				trip.EndLocationManual = true
			}
			break
		}
	}
}

func withinTolerance(a, b time.Time, tolerance time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vesselware/voyagelog/internal/trips"
)

// WriteSnapshot serializes the trip list as a single ordered JSON
// document for the renderer and editor. The write is atomic so a
// crashed run never leaves a truncated snapshot behind.
func WriteSnapshot(path string, tripList []*trips.Trip) error {
	raw, err := json.MarshalIndent(tripList, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("error creating snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot loads a previously written trip snapshot
func ReadSnapshot(path string) ([]*trips.Trip, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading snapshot %s: %w", path, err)
	}

	var tripList []*trips.Trip
	if err := json.Unmarshal(raw, &tripList); err != nil {
		return nil, fmt.Errorf("error parsing snapshot %s: %w", path, err)
	}
	return tripList, nil
}

// Package history converts between the serialized history column and the
// in-memory event sequence. Encoding is always whole-sequence: there is no
// partial or delta form, so Decode(Encode(events)) returns the same events.
package history

import (
	"encoding/json"
	"fmt"

	"github.com/carelog/patient-api/internal/model"
	apperrors "github.com/carelog/patient-api/pkg/errors"
)

// Decode parses the stored history blob. An empty blob is an empty history,
// not an error. A non-empty blob that fails to parse reports corrupt data
// to the caller instead of panicking.
func Decode(raw string) ([]model.Event, error) {
	if raw == "" {
		return []model.Event{}, nil
	}

	var events []model.Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, apperrors.CorruptData("patient history", err)
	}
	if events == nil {
		// stored literal "null"
		return []model.Event{}, nil
	}
	return events, nil
}

// Encode serializes the full event sequence back to its stored form.
func Encode(events []model.Event) (string, error) {
	if events == nil {
		events = []model.Event{}
	}

	data, err := json.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("failed to encode history: %w", err)
	}
	return string(data), nil
}

// Append decodes the current blob, appends the event and re-encodes the
// whole sequence.
func Append(raw string, event model.Event) (string, error) {
	events, err := Decode(raw)
	if err != nil {
		return "", err
	}

	events = append(events, event)
	return Encode(events)
}

package model

import "time"

// EventType tags a history entry.
type EventType string

const (
	EventTypeVisit   EventType = "visit"
	EventTypePayment EventType = "payment"
)

// Event is one entry of a patient's history. The history is an ordered,
// insertion-order-preserving sequence: entries are only ever appended,
// never removed or reordered. Visit and payment entries share one struct;
// omitempty keeps the stored form free of fields the variant does not use.
type Event struct {
	Type EventType `json:"type"`
	Date string    `json:"date,omitempty"`

	// visit fields
	Purpose           string   `json:"purpose,omitempty"`
	MentalHealthScore *float64 `json:"mentalHealthScore,omitempty"`
	Prescription      string   `json:"prescription,omitempty"`

	// payment fields
	Amount *float64 `json:"amount,omitempty"`
	Method string   `json:"method,omitempty"`
}

// HasDate reports whether the event carries a date. Dateless events are
// kept in storage but filtered out of derived views.
func (e Event) HasDate() bool {
	return e.Date != ""
}

// ValidDate reports whether the event's date, if present, parses as an
// ISO-8601 timestamp.
func (e Event) ValidDate() bool {
	if !e.HasDate() {
		return true
	}
	_, err := time.Parse(time.RFC3339, e.Date)
	return err == nil
}

// NewVisitEvent builds a visit entry, stamping the current time when no
// date is supplied.
func NewVisitEvent(date, purpose string, mentalHealthScore *float64, prescription string) Event {
	if date == "" {
		date = time.Now().UTC().Format(time.RFC3339)
	}
	return Event{
		Type:              EventTypeVisit,
		Date:              date,
		Purpose:           purpose,
		MentalHealthScore: mentalHealthScore,
		Prescription:      prescription,
	}
}

// NewPaymentEvent builds a payment entry stamped with the current time.
func NewPaymentEvent(amount float64, method string) Event {
	return Event{
		Type:   EventTypePayment,
		Date:   time.Now().UTC().Format(time.RFC3339),
		Amount: &amount,
		Method: method,
	}
}

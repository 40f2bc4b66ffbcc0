package model

import "time"

// Occurrence is a single concrete instance of a calendar event, after
// recurrence expansion and conversion into the display location.
type Occurrence struct {
	SourceID string // ID of the .ics source it came from
	UID      string // iCalendar UID

	// InstanceKey distinguishes occurrences of one recurring event; it is
	// the RFC 3339 form of the local start.
	InstanceKey string

	Summary  string
	Location string

	AllDay bool

	Start time.Time
	End   time.Time
}

// Before orders occurrences by start, then summary, then UID, so agenda
// listings are stable.
func (o Occurrence) Before(other Occurrence) bool {
	if !o.Start.Equal(other.Start) {
		return o.Start.Before(other.Start)
	}
	if o.Summary != other.Summary {
		return o.Summary < other.Summary
	}
	return o.UID < other.UID
}

package model

import "time"

// Occurrence is a task placed on one concrete date of an agenda. For a
// recurring task it is a virtual projection: a copy of the source task
// whose DueDate is replaced by the occurrence date. It is never persisted.
type Occurrence struct {
	Task

	// Virtual is true when the entry was projected from a recurrence rule.
	Virtual bool `json:"virtual"`
}

// Date returns the calendar date the occurrence is placed on.
func (o Occurrence) Date() time.Time {
	if o.DueDate == nil {
		return time.Time{}
	}
	return *o.DueDate
}

// Key identifies the occurrence within a view. Several occurrences of the
// same recurring task share Task.ID, so selection state must use Key.
func (o Occurrence) Key() string {
	if o.DueDate == nil {
		return o.ID
	}
	return o.ID + "@" + FormatDate(*o.DueDate)
}

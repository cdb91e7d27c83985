package model

import (
	"time"

	"cloud.google.com/go/civil"
)

type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case "", RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

func (r Recurrence) Repeats() bool {
	return r == RecurrenceDaily || r == RecurrenceWeekly || r == RecurrenceMonthly
}

// Advance moves d forward by one recurrence interval. Monthly follows
// time.AddDate normalisation, so Jan 31 rolls into early March.
func (r Recurrence) Advance(d civil.Date) civil.Date {
	switch r {
	case RecurrenceDaily:
		return d.AddDays(1)
	case RecurrenceWeekly:
		return d.AddDays(7)
	case RecurrenceMonthly:
		return civil.DateOf(d.In(time.UTC).AddDate(0, 1, 0))
	}
	return d
}

// NextOccurrence builds the follow-up task for a completed recurring task.
// Tasks without a due date are rolled forward from the completion day.
func NextOccurrence(done Todo, newID string, now time.Time) (Todo, bool) {
	if !done.Recurrence.Repeats() {
		return Todo{}, false
	}
	base := civil.DateOf(now)
	if done.DueDate != nil {
		base = *done.DueDate
	}
	due := done.Recurrence.Advance(base)

	next := done.Clone()
	next.ID = newID
	next.DueDate = &due
	next.Completed = false
	next.Status = StatusTodo
	next.CreatedAt = now
	next.UpdatedAt = nil
	next.UpdatedBy = ""
	for i := range next.Subtasks {
		next.Subtasks[i].Completed = false
	}
	return next.Normalize(), true
}

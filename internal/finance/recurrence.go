package finance

import (
	"context"
	"fmt"
	"time"
)

// MAX_RECURRENCE_CATCHUP bounds the occurrences one listing stores for a single recurring
// transaction. Anything still due is stored by the next listing.
const MAX_RECURRENCE_CATCHUP = 400

// NextOccurrence returns the date one recurrence step after date, or "" when the transaction
// does not recur. Months and years overflow like time.AddDate: Jan 31 + 1 month is Mar 2 or 3.
func NextOccurrence(date, recurrence string) string {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return ""
	}
	switch recurrence {
	case RecurrenceDaily:
		d = d.AddDate(0, 0, 1)
	case RecurrenceWeekly:
		d = d.AddDate(0, 0, 7)
	case RecurrenceMonthly:
		d = d.AddDate(0, 1, 0)
	case RecurrenceYearly:
		d = d.AddDate(1, 0, 0)
	default:
		return ""
	}
	return d.Format(DateLayout)
}

// dueDate is when txn repeats next. Rows stored before next dates were tracked have none and
// repeat one step after their own date.
func dueDate(txn Transaction) string {
	if txn.Recurrence == RecurrenceNone {
		return ""
	}
	if txn.NextDate != "" {
		return txn.NextDate
	}
	return NextOccurrence(txn.Date, txn.Recurrence)
}

// materializeRecurring stores each occurrence of a recurring transaction that is due on or before
// today. The stored occurrence inherits the recurrence and its predecessor becomes a plain record,
// so only the latest occurrence of a series ever recurs.
func (t *Tracker) materializeRecurring(ctx context.Context, txns []Transaction) (int, error) {
	today := t.today()
	created := 0
	for _, txn := range txns {
		current := txn
		for step := 0; step < MAX_RECURRENCE_CATCHUP; step++ {
			due := dueDate(current)
			if due == "" || due > today {
				break
			}

			next := current
			next.ID = newID()
			next.Date = due
			next.NextDate = NextOccurrence(due, current.Recurrence)
			if err := t.storage.SaveTransaction(ctx, next); err != nil {
				return created, fmt.Errorf("failed to save recurring transaction: %w", err)
			}

			current.Recurrence = RecurrenceNone
			current.NextDate = ""
			if err := t.storage.UpdateTransaction(ctx, current); err != nil {
				return created, fmt.Errorf("failed to end recurring transaction: %w", err)
			}
			created++
			current = next
		}
	}
	return created, nil
}

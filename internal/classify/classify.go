// Package classify assigns every transaction to exactly one spending
// bucket. Classification is recomputed on every read so edits to status,
// recurrence or due date reclassify retroactively.
package classify

import (
	"time"

	"paycycle/internal/core"
)

type Classification string

const (
	Committed     Classification = "COMMITTED"
	Discretionary Classification = "DISCRETIONARY"
	Income        Classification = "INCOME"
)

// Window is a half-open [Start, End) query window.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// IsCommittedPredicate holds for scheduled, recurring or due-dated records.
// Any set status, PAID included, marks a record as committed.
func IsCommittedPredicate(tx core.TransactionRecord) bool {
	return tx.Status != nil || core.IsRecurring(tx.Recurrence) || tx.DueDate != nil
}

// IsDiscretionaryPredicate holds for one-off expenses with no due date
// whose status is unset or PAID.
func IsDiscretionaryPredicate(tx core.TransactionRecord) bool {
	return tx.Type == core.Expense &&
		tx.DueDate == nil &&
		!core.IsRecurring(tx.Recurrence) &&
		(tx.Status == nil || *tx.Status == core.Paid)
}

// Classify is total: income first, then committed, and discretionary for
// everything else. Committed wins when both predicates hold.
func Classify(tx core.TransactionRecord) Classification {
	switch {
	case tx.Type == core.Income:
		return Income
	case IsCommittedPredicate(tx):
		return Committed
	default:
		return Discretionary
	}
}

// InWindow reports whether tx belongs to w under classification c.
// Committed records match on either their date or their due date.
func InWindow(tx core.TransactionRecord, c Classification, w Window) bool {
	if w.contains(tx.Date) {
		return true
	}
	return c == Committed && tx.DueDate != nil && w.contains(*tx.DueDate)
}

// Partitioned holds the in-window records of each class, in input order.
type Partitioned struct {
	Committed     []core.TransactionRecord
	Discretionary []core.TransactionRecord
	Income        []core.TransactionRecord
}

// Partition classifies txs in a single pass, dropping records outside w.
func Partition(txs []core.TransactionRecord, w Window) Partitioned {
	var p Partitioned
	for _, tx := range txs {
		c := Classify(tx)
		if !InWindow(tx, c, w) {
			continue
		}
		switch c {
		case Income:
			p.Income = append(p.Income, tx)
		case Committed:
			p.Committed = append(p.Committed, tx)
		default:
			p.Discretionary = append(p.Discretionary, tx)
		}
	}
	return p
}

// DiscretionaryOnly returns the discretionary records of txs regardless of
// window, preserving order.
func DiscretionaryOnly(txs []core.TransactionRecord) []core.TransactionRecord {
	out := make([]core.TransactionRecord, 0, len(txs))
	for _, tx := range txs {
		if Classify(tx) == Discretionary {
			out = append(out, tx)
		}
	}
	return out
}

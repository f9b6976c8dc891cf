// Package policy holds the per-borrower-type borrowing rules. The table is
// built once at startup and injected into the lifecycle manager; nothing
// mutates it afterwards.
package policy

import (
	"github.com/katsura919/book-master-server/internal/entities"
)

// Rule is the borrowing policy for one borrower type.
type Rule struct {
	MaxBooks int // Maximum books per borrow request
	DueDays  int // Loan duration in days
}

// Table maps a borrower type to its rule.
type Table map[entities.BorrowerType]Rule

// Default returns the standard library policy: students get short loans and
// a small cap, faculty get a semester-length loan.
func Default() Table {
	return Table{
		entities.BorrowerTypeStudent:  {MaxBooks: 3, DueDays: 7},
		entities.BorrowerTypeFaculty:  {MaxBooks: 10, DueDays: 120},
		entities.BorrowerTypeEmployee: {MaxBooks: 10, DueDays: 7},
	}
}

// Lookup returns the rule for the given type, and whether the type is known.
func (t Table) Lookup(borrowerType entities.BorrowerType) (Rule, bool) {
	rule, ok := t[borrowerType]
	return rule, ok
}

package requests

import (
	"time"

	"github.com/katsura919/book-master-server/internal/entities"
)

// OverdueCandidates returns non-terminal lines whose due date falls before
// the given cutoff. Pending lines never match (their due date is null) and
// Returned lines are excluded so they stop accruing once handed back.
func (r *Repository) OverdueCandidates(before time.Time) ([]entities.BorrowedBook, error) {
	var lines []entities.BorrowedBook
	err := r.db.
		Where("due_date IS NOT NULL AND due_date < ?", before).
		Where("book_status IN (?, ?)", entities.LineStatusUnreturned, entities.LineStatusOverdue).
		Find(&lines).Error
	return lines, err
}

// UpdateLineAccrual overwrites a line's overdue hours and penalty. The
// sweep recomputes both from scratch every run, so this is a plain set, not
// an increment.
func (r *Repository) UpdateLineAccrual(lineID uint, hoursDue, penalty int) error {
	return r.db.Model(&entities.BorrowedBook{}).
		Where("id = ?", lineID).
		Updates(map[string]interface{}{
			"hours_due": hoursDue,
			"penalty":   penalty,
		}).Error
}

// PromoteLineOverdue marks a line Overdue.
func (r *Repository) PromoteLineOverdue(lineID uint) error {
	return r.db.Model(&entities.BorrowedBook{}).
		Where("id = ?", lineID).
		Update("book_status", entities.LineStatusOverdue).Error
}

// OverdueRequestIDs lists requests holding at least one Overdue line and
// not already marked Overdue themselves.
func (r *Repository) OverdueRequestIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Raw(`
		SELECT DISTINCT br.id
		FROM book_req br
		JOIN borrowed_books bb ON bb.req_id = br.id
		WHERE bb.book_status = ? AND br.status != ?`,
		entities.LineStatusOverdue, entities.RequestStatusOverdue).
		Scan(&ids).Error
	return ids, err
}

// PromoteRequestOverdue marks a request Overdue.
func (r *Repository) PromoteRequestOverdue(reqID uint) error {
	return r.db.Model(&entities.BorrowRequest{}).
		Where("id = ?", reqID).
		Update("status", entities.RequestStatusOverdue).Error
}

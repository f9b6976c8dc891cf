// Package requests provides database operations for the borrow-request
// lifecycle: request/line creation, status transitions, and the flattened
// join queries the admin views are built from.
package requests

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/katsura919/book-master-server/internal/database/catalog"
	"github.com/katsura919/book-master-server/internal/entities"
)

// Repository handles all borrow-request database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new borrow-request repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateRequest upserts the borrower, then creates the request and one
// Pending line per book, all inside a single transaction. A failure on any
// line rolls back the whole request rather than leaving it half-inserted.
func (r *Repository) CreateRequest(borrower *entities.Borrower, bookIDs []uint, createdAt time.Time) (*entities.BorrowRequest, error) {
	request := &entities.BorrowRequest{
		BorrowerID: borrower.ID,
		Status:     entities.RequestStatusPending,
		ReqCreated: createdAt,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(borrower).Error; err != nil {
			return err
		}

		if err := tx.Create(request).Error; err != nil {
			return err
		}

		lines := make([]entities.BorrowedBook, 0, len(bookIDs))
		for _, bookID := range bookIDs {
			lines = append(lines, entities.BorrowedBook{
				RequestID: request.ID,
				BookID:    bookID,
				Status:    entities.LineStatusPending,
			})
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// ApprovalInfo is the request/borrower/line join needed to approve a
// request.
type ApprovalInfo struct {
	BorrowerID   string
	BorrowerType entities.BorrowerType
	BookIDs      []uint
}

// GetApprovalInfo resolves the borrower type and book IDs for a request.
// Returns gorm.ErrRecordNotFound when the join yields no rows.
func (r *Repository) GetApprovalInfo(reqID uint) (*ApprovalInfo, error) {
	var rows []struct {
		BorrowerID   string
		BorrowerType entities.BorrowerType
		BookID       uint
	}
	err := r.db.Raw(`
		SELECT b.id AS borrower_id, b.borrower_type, bb.book_id
		FROM book_req br
		JOIN borrowers b ON br.borrower_id = b.id
		JOIN borrowed_books bb ON bb.req_id = br.id
		WHERE br.id = ?`, reqID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	info := &ApprovalInfo{
		BorrowerID:   rows[0].BorrowerID,
		BorrowerType: rows[0].BorrowerType,
		BookIDs:      make([]uint, 0, len(rows)),
	}
	for _, row := range rows {
		info.BookIDs = append(info.BookIDs, row.BookID)
	}
	return info, nil
}

// ApproveRequest applies the approval transition in one transaction: the
// request becomes Approved, every line becomes Unreturned with the given
// due date, and one copy per line is taken off the shelf. Books already at
// zero copies are skipped rather than failing the approval.
func (r *Repository) ApproveRequest(reqID uint, bookIDs []uint, dueDate, approvedAt time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.BorrowRequest{}).
			Where("id = ?", reqID).
			Updates(map[string]interface{}{
				"status":      entities.RequestStatusApproved,
				"req_approve": approvedAt,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&entities.BorrowedBook{}).
			Where("req_id = ?", reqID).
			Updates(map[string]interface{}{
				"due_date":    dueDate,
				"book_status": entities.LineStatusUnreturned,
			}).Error; err != nil {
			return err
		}

		for _, bookID := range bookIDs {
			if _, err := catalog.DecrementAvailable(tx, bookID); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetRequestStatus updates a request's status. Returns rows affected.
func (r *Repository) SetRequestStatus(reqID uint, status entities.RequestStatus) (int64, error) {
	result := r.db.Model(&entities.BorrowRequest{}).
		Where("id = ?", reqID).
		Update("status", status)
	return result.RowsAffected, result.Error
}

// DeleteRequest hard-deletes a request and its lines in one transaction.
func (r *Repository) DeleteRequest(reqID uint) (int64, error) {
	var affected int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("req_id = ?", reqID).Delete(&entities.BorrowedBook{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.BorrowRequest{}, reqID)
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}

// DeleteLine removes a single book line from a request.
func (r *Repository) DeleteLine(bookID, reqID uint) (int64, error) {
	result := r.db.Where("book_id = ? AND req_id = ?", bookID, reqID).
		Delete(&entities.BorrowedBook{})
	return result.RowsAffected, result.Error
}

// GetLine fetches the line for a book within a request.
func (r *Repository) GetLine(bookID, reqID uint) (*entities.BorrowedBook, error) {
	var line entities.BorrowedBook
	err := r.db.Where("book_id = ? AND req_id = ?", bookID, reqID).First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// RenewLine moves a line's due date and clears its accrued overdue state.
func (r *Repository) RenewLine(lineID uint, dueDate time.Time) error {
	return r.db.Model(&entities.BorrowedBook{}).
		Where("id = ?", lineID).
		Updates(map[string]interface{}{
			"due_date":  dueDate,
			"hours_due": 0,
			"penalty":   0,
		}).Error
}

// SetLineStatusByBook sets the status of every line referencing a book.
// Returns rows affected.
func (r *Repository) SetLineStatusByBook(bookID uint, status entities.LineStatus) (int64, error) {
	result := r.db.Model(&entities.BorrowedBook{}).
		Where("book_id = ?", bookID).
		Update("book_status", status)
	return result.RowsAffected, result.Error
}

// StatusCounts tallies requests per status.
func (r *Repository) StatusCounts() (map[entities.RequestStatus]int64, error) {
	var rows []struct {
		Status entities.RequestStatus
		Count  int64
	}
	err := r.db.Model(&entities.BorrowRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[entities.RequestStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountCreatedBetween counts requests created in [from, to).
func (r *Repository) CountCreatedBetween(from, to time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&entities.BorrowRequest{}).
		Where("req_created >= ? AND req_created < ?", from, to).
		Count(&count).Error
	return count, err
}

// CountAll counts every request.
func (r *Repository) CountAll() (int64, error) {
	var count int64
	err := r.db.Model(&entities.BorrowRequest{}).Count(&count).Error
	return count, err
}

// MonthlyCount is one month's request totals for the dashboard chart.
type MonthlyCount struct {
	Month    string `json:"month"` // "01".."12"
	Pending  int64  `json:"pending"`
	Approved int64  `json:"approved"`
	Overdue  int64  `json:"overdue"`
}

// MonthlyChartData folds request creation dates and statuses into per-month
// counts. The aggregation runs in Go so it does not depend on the storage
// format of timestamps.
func (r *Repository) MonthlyChartData() ([]MonthlyCount, error) {
	var rows []struct {
		ReqCreated time.Time
		Status     entities.RequestStatus
	}
	err := r.db.Model(&entities.BorrowRequest{}).
		Select("req_created, status").
		Order("req_created").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]*MonthlyCount)
	months := make([]string, 0, 12)
	for _, row := range rows {
		month := row.ReqCreated.Format("01")
		entry, ok := byMonth[month]
		if !ok {
			entry = &MonthlyCount{Month: month}
			byMonth[month] = entry
			months = append(months, month)
		}
		switch row.Status {
		case entities.RequestStatusPending:
			entry.Pending++
		case entities.RequestStatusApproved:
			entry.Approved++
		case entities.RequestStatusOverdue:
			entry.Overdue++
		}
	}

	counts := make([]MonthlyCount, 0, len(months))
	for _, month := range months {
		counts = append(counts, *byMonth[month])
	}
	return counts, nil
}

// Borrowers lists every borrower on record.
func (r *Repository) Borrowers() ([]entities.Borrower, error) {
	var borrowers []entities.Borrower
	err := r.db.Find(&borrowers).Error
	return borrowers, err
}

// CountBorrowers counts borrowers on record.
func (r *Repository) CountBorrowers() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Borrower{}).Count(&count).Error
	return count, err
}

// TypeCount is one borrower type's share of the borrower population.
type TypeCount struct {
	BorrowerType entities.BorrowerType `json:"borrower_type"`
	Count        int64                 `json:"count"`
}

// BorrowerTypeDistribution tallies borrowers per type.
func (r *Repository) BorrowerTypeDistribution() ([]TypeCount, error) {
	var rows []TypeCount
	err := r.db.Model(&entities.Borrower{}).
		Select("borrower_type, COUNT(*) AS count").
		Group("borrower_type").
		Scan(&rows).Error
	return rows, err
}

// RequestsForBorrower lists a borrower's requests without their lines.
func (r *Repository) RequestsForBorrower(borrowerID string) ([]entities.BorrowRequest, error) {
	var reqs []entities.BorrowRequest
	err := r.db.Where("borrower_id = ?", borrowerID).Find(&reqs).Error
	return reqs, err
}

// BookRequestInfo is one borrower currently or previously holding a book.
type BookRequestInfo struct {
	ReqID         uint                   `json:"req_id"`
	BorrowerID    string                 `json:"borrower_id"`
	FirstName     string                 `json:"first_name"`
	LastName      string                 `json:"last_name"`
	Email         string                 `json:"email"`
	ContactNumber string                 `json:"contact_number"`
	BorrowerType  entities.BorrowerType  `json:"borrower_type"`
	Status        entities.RequestStatus `json:"status"`
	ReqCreated    time.Time              `json:"req_created"`
	ReqApprove    *time.Time             `json:"req_approve"`
}

// RequestsForBook lists active (approved or later) requests covering a
// book.
func (r *Repository) RequestsForBook(bookID uint) ([]BookRequestInfo, error) {
	var rows []BookRequestInfo
	err := r.db.Raw(`
		SELECT br.id AS req_id, br.borrower_id, b.first_name, b.last_name,
		       b.email, b.contact_number, b.borrower_type,
		       br.status, br.req_created, br.req_approve
		FROM book_req br
		JOIN borrowers b ON br.borrower_id = b.id
		JOIN borrowed_books bb ON bb.req_id = br.id
		WHERE bb.book_id = ? AND br.status NOT IN (?, ?)`,
		bookID, entities.RequestStatusPending, entities.RequestStatusRejected).
		Scan(&rows).Error
	return rows, err
}

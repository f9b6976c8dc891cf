package requests

import (
	"time"

	"gorm.io/gorm"

	"github.com/katsura919/book-master-server/internal/entities"
)

// requestRow is one flattened row of the request/borrower/line/book join.
// Line and book columns are nullable because requests may have no lines
// after administrative removal.
type requestRow struct {
	ReqID        uint
	BorrowerID   string
	Status       entities.RequestStatus
	ReqCreated   time.Time
	ReqApprove   *time.Time
	FirstName    string
	LastName     string
	BorrowerType entities.BorrowerType
	BorrowID     *uint
	BookID       *uint
	Title        *string
	ISBN         *string
	DueDate      *time.Time
	BookStatus   *entities.LineStatus
	HoursDue     *int
	Penalty      *int
}

// RequestBorrower is the borrower slice of a grouped request view.
type RequestBorrower struct {
	FirstName    string                `json:"first_name"`
	LastName     string                `json:"last_name"`
	BorrowerType entities.BorrowerType `json:"borrower_type"`
}

// RequestBook is one book line of a grouped request view.
type RequestBook struct {
	BorrowID uint                `json:"borrow_id"`
	BookID   uint                `json:"book_id"`
	Title    string              `json:"title"`
	ISBN     string              `json:"isbn"`
	DueDate  *time.Time          `json:"due_date"`
	Status   entities.LineStatus `json:"book_status"`
	HoursDue int                 `json:"hours_due"`
	Penalty  int                 `json:"penalty"`
}

// RequestSummary is a request with its borrower and book lines folded into
// a tree, as served by the request listing endpoints.
type RequestSummary struct {
	ReqID      uint                   `json:"req_id"`
	BorrowerID string                 `json:"borrower_id"`
	Status     entities.RequestStatus `json:"status"`
	ReqCreated time.Time              `json:"req_created"`
	ReqApprove *time.Time             `json:"req_approve"`
	Borrower   RequestBorrower        `json:"borrower"`
	Books      []RequestBook          `json:"books"`
}

const requestJoinSelect = `
	SELECT br.id AS req_id, br.borrower_id, br.status, br.req_created, br.req_approve,
	       b.first_name, b.last_name, b.borrower_type,
	       bb.id AS borrow_id, bb.book_id, ab.title, ab.isbn,
	       bb.due_date, bb.book_status, bb.hours_due, bb.penalty
	FROM book_req br
	JOIN borrowers b ON br.borrower_id = b.id
	LEFT JOIN borrowed_books bb ON bb.req_id = br.id
	LEFT JOIN available_books ab ON bb.book_id = ab.id`

// groupRequestRows folds flattened join rows into request trees. Rows are
// grouped by request ID; a row with a null line contributes the request
// header only. Input order is preserved.
func groupRequestRows(rows []requestRow) []RequestSummary {
	summaries := make([]RequestSummary, 0)
	index := make(map[uint]int)

	for _, row := range rows {
		pos, ok := index[row.ReqID]
		if !ok {
			pos = len(summaries)
			index[row.ReqID] = pos
			summaries = append(summaries, RequestSummary{
				ReqID:      row.ReqID,
				BorrowerID: row.BorrowerID,
				Status:     row.Status,
				ReqCreated: row.ReqCreated,
				ReqApprove: row.ReqApprove,
				Borrower: RequestBorrower{
					FirstName:    row.FirstName,
					LastName:     row.LastName,
					BorrowerType: row.BorrowerType,
				},
				Books: []RequestBook{},
			})
		}

		if row.BorrowID == nil || row.BookID == nil {
			continue
		}
		book := RequestBook{
			BorrowID: *row.BorrowID,
			BookID:   *row.BookID,
			DueDate:  row.DueDate,
		}
		if row.Title != nil {
			book.Title = *row.Title
		}
		if row.ISBN != nil {
			book.ISBN = *row.ISBN
		}
		if row.BookStatus != nil {
			book.Status = *row.BookStatus
		}
		if row.HoursDue != nil {
			book.HoursDue = *row.HoursDue
		}
		if row.Penalty != nil {
			book.Penalty = *row.Penalty
		}
		summaries[pos].Books = append(summaries[pos].Books, book)
	}
	return summaries
}

// ListRequests returns grouped request trees, optionally filtered to one
// request status.
func (r *Repository) ListRequests(status entities.RequestStatus) ([]RequestSummary, error) {
	var rows []requestRow
	query := requestJoinSelect
	args := []interface{}{}
	if status != "" {
		query += " WHERE br.status = ?"
		args = append(args, status)
	}
	query += " ORDER BY br.id"

	if err := r.db.Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return groupRequestRows(rows), nil
}

// GetRequest returns one grouped request tree. Returns
// gorm.ErrRecordNotFound when the request does not exist.
func (r *Repository) GetRequest(reqID uint) (*RequestSummary, error) {
	var rows []requestRow
	err := r.db.Raw(requestJoinSelect+" WHERE br.id = ?", reqID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	summaries := groupRequestRows(rows)
	if len(summaries) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &summaries[0], nil
}

// TrackedBook is one book line in the public tracking view.
type TrackedBook struct {
	Title    string              `json:"title"`
	DueDate  *time.Time          `json:"due_date"`
	HoursDue int                 `json:"hours_due"`
	Penalty  int                 `json:"penalty"`
	Status   entities.LineStatus `json:"status"`
}

// TrackingInfo is the public view of one request's progress.
type TrackingInfo struct {
	BorrowerName  string                 `json:"borrower_name"`
	RequestStatus entities.RequestStatus `json:"request_status"`
	Books         []TrackedBook          `json:"books"`
}

// TrackRequest builds the public tracking view for a request. Returns
// gorm.ErrRecordNotFound when the request has no lines to report.
func (r *Repository) TrackRequest(reqID uint) (*TrackingInfo, error) {
	var rows []struct {
		RequestStatus entities.RequestStatus
		FirstName     string
		LastName      string
		Title         string
		DueDate       *time.Time
		HoursDue      int
		Penalty       int
		BookStatus    entities.LineStatus
	}
	err := r.db.Raw(`
		SELECT br.status AS request_status, b.first_name, b.last_name,
		       ab.title, bb.due_date, bb.hours_due, bb.penalty, bb.book_status
		FROM book_req br
		JOIN borrowers b ON br.borrower_id = b.id
		JOIN borrowed_books bb ON bb.req_id = br.id
		JOIN available_books ab ON bb.book_id = ab.id
		WHERE br.id = ?`, reqID).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	info := &TrackingInfo{
		BorrowerName:  rows[0].FirstName + " " + rows[0].LastName,
		RequestStatus: rows[0].RequestStatus,
		Books:         make([]TrackedBook, 0, len(rows)),
	}
	for _, row := range rows {
		info.Books = append(info.Books, TrackedBook{
			Title:    row.Title,
			DueDate:  row.DueDate,
			HoursDue: row.HoursDue,
			Penalty:  row.Penalty,
			Status:   row.BookStatus,
		})
	}
	return info, nil
}

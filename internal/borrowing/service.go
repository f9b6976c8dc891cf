// Package borrowing implements the borrow-request lifecycle: request
// creation, the approve/reject/return transitions, renewals, and the
// inventory adjustments that ride along with them.
package borrowing

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/katsura919/book-master-server/internal/database/catalog"
	"github.com/katsura919/book-master-server/internal/database/requests"
	"github.com/katsura919/book-master-server/internal/entities"
	"github.com/katsura919/book-master-server/internal/policy"
)

// Service is the borrow-request lifecycle manager. Policies are injected at
// construction and never change afterwards.
type Service struct {
	requests *requests.Repository
	catalog  *catalog.Repository
	policies policy.Table
	now      func() time.Time
}

// NewService creates a lifecycle manager over the given repositories.
func NewService(reqRepo *requests.Repository, catRepo *catalog.Repository, policies policy.Table) *Service {
	return &Service{
		requests: reqRepo,
		catalog:  catRepo,
		policies: policies,
		now:      time.Now,
	}
}

// SetClock overrides the service clock, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CreateRequestInput carries the borrower details and book selection of a
// new borrow request.
type CreateRequestInput struct {
	BorrowerID    string
	FirstName     string
	LastName      string
	Email         string
	ContactNumber string
	BorrowerType  entities.BorrowerType
	Department    string
	BookIDs       []uint
}

func (in *CreateRequestInput) validate() error {
	switch {
	case in.BorrowerID == "", in.FirstName == "", in.LastName == "",
		in.Email == "", in.ContactNumber == "", in.Department == "":
		return &ValidationError{Reason: "all borrower fields are required"}
	case len(in.BookIDs) == 0:
		return &ValidationError{Reason: "at least one book must be selected"}
	case !in.BorrowerType.Valid():
		return &ValidationError{Reason: fmt.Sprintf("invalid borrower type: %s", in.BorrowerType)}
	}
	return nil
}

// CreateRequest validates the input, enforces the per-type book cap, and
// creates the borrower (upsert), request, and lines atomically.
func (s *Service) CreateRequest(in CreateRequestInput) (*entities.BorrowRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	rule, ok := s.policies.Lookup(in.BorrowerType)
	if !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid borrower type: %s", in.BorrowerType)}
	}
	if len(in.BookIDs) > rule.MaxBooks {
		return nil, &PolicyViolation{
			Reason: fmt.Sprintf("%ss can only borrow up to %d books", in.BorrowerType, rule.MaxBooks),
		}
	}

	borrower := &entities.Borrower{
		ID:            in.BorrowerID,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Department:    in.Department,
		Email:         in.Email,
		ContactNumber: in.ContactNumber,
		Type:          in.BorrowerType,
	}

	request, err := s.requests.CreateRequest(borrower, in.BookIDs, startOfDay(s.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to create borrow request: %w", err)
	}
	return request, nil
}

// Approve transitions a Pending request to Approved: the approval date is
// set, every line gets a due date of today plus the borrower type's loan
// days and becomes Unreturned, and one copy per line comes off the shelf.
// Exhausted books are skipped without failing the approval.
func (s *Service) Approve(reqID uint) error {
	info, err := s.requests.GetApprovalInfo(reqID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to resolve request %d: %w", reqID, err)
	}

	rule, ok := s.policies.Lookup(info.BorrowerType)
	if !ok {
		return &ValidationError{Reason: fmt.Sprintf("invalid borrower type: %s", info.BorrowerType)}
	}

	now := s.now()
	dueDate := startOfDay(now).AddDate(0, 0, rule.DueDays)
	if err := s.requests.ApproveRequest(reqID, info.BookIDs, dueDate, startOfDay(now)); err != nil {
		return fmt.Errorf("failed to approve request %d: %w", reqID, err)
	}
	return nil
}

// Reject marks a request Rejected.
func (s *Service) Reject(reqID uint) error {
	return s.setStatus(reqID, entities.RequestStatusRejected)
}

// Return marks a request Returned.
func (s *Service) Return(reqID uint) error {
	return s.setStatus(reqID, entities.RequestStatusReturned)
}

func (s *Service) setStatus(reqID uint, status entities.RequestStatus) error {
	affected, err := s.requests.SetRequestStatus(reqID, status)
	if err != nil {
		return fmt.Errorf("failed to update request %d: %w", reqID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Renew extends a line's due date by the borrower type's loan days,
// counted from the line's current due date rather than from today, and
// clears its accrued hours and penalty.
func (s *Service) Renew(bookID, reqID uint, borrowerType entities.BorrowerType) error {
	rule, ok := s.policies.Lookup(borrowerType)
	if !ok {
		return &ValidationError{Reason: fmt.Sprintf("invalid borrower type: %s", borrowerType)}
	}

	line, err := s.requests.GetLine(bookID, reqID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load line for book %d: %w", bookID, err)
	}
	if line.DueDate == nil {
		return &ValidationError{Reason: "book has no due date to renew"}
	}

	newDue := line.DueDate.AddDate(0, 0, rule.DueDays)
	if err := s.requests.RenewLine(line.ID, newDue); err != nil {
		return fmt.Errorf("failed to renew line %d: %w", line.ID, err)
	}
	return nil
}

// RemoveLine deletes one book line from a request.
func (s *Service) RemoveLine(bookID, reqID uint) error {
	affected, err := s.requests.DeleteLine(bookID, reqID)
	if err != nil {
		return fmt.Errorf("failed to remove book %d from request %d: %w", bookID, reqID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRequest hard-deletes a request and all of its lines.
func (s *Service) DeleteRequest(reqID uint) error {
	affected, err := s.requests.DeleteRequest(reqID)
	if err != nil {
		return fmt.Errorf("failed to delete request %d: %w", reqID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLineStatus sets the status of a book's lines directly. A Returned
// transition puts one copy back on the shelf, capped at the book's total.
func (s *Service) UpdateLineStatus(bookID uint, status entities.LineStatus) error {
	affected, err := s.requests.SetLineStatusByBook(bookID, status)
	if err != nil {
		return fmt.Errorf("failed to update status for book %d: %w", bookID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	if status == entities.LineStatusReturned {
		if _, err := s.catalog.IncrementAvailable(bookID); err != nil {
			return fmt.Errorf("failed to restore copy for book %d: %w", bookID, err)
		}
	}
	return nil
}

// startOfDay truncates a time to local midnight. Due dates and request
// dates are calendar dates; overdue comparisons are date-based.
func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

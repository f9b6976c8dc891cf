package entities

import (
	"time"
)

type BorrowerType string

const (
	BorrowerTypeStudent  BorrowerType = "student"
	BorrowerTypeFaculty  BorrowerType = "faculty"
	BorrowerTypeEmployee BorrowerType = "employee"
)

// Valid reports whether the borrower type is one of the recognized types.
func (t BorrowerType) Valid() bool {
	switch t {
	case BorrowerTypeStudent, BorrowerTypeFaculty, BorrowerTypeEmployee:
		return true
	}
	return false
}

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "Pending"
	RequestStatusApproved RequestStatus = "Approved"
	RequestStatusRejected RequestStatus = "Rejected"
	RequestStatusOverdue  RequestStatus = "Overdue"
	RequestStatusReturned RequestStatus = "Returned"
)

type LineStatus string

const (
	LineStatusPending    LineStatus = "Pending"
	LineStatusUnreturned LineStatus = "Unreturned"
	LineStatusOverdue    LineStatus = "Overdue"
	LineStatusReturned   LineStatus = "Returned"
)

// Admin is a staff account allowed to manage requests and the catalog.
type Admin struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FirstName    string    `gorm:"size:100" json:"first_name"`
	LastName     string    `gorm:"size:100" json:"last_name"`
	Username     string    `gorm:"uniqueIndex;size:100" json:"username"`
	PasswordHash string    `gorm:"size:100" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Borrower is keyed by the external ID supplied by the borrower (e.g. a
// student number), not an auto-increment. Each borrow request upserts the
// full row so contact details track the latest submission.
type Borrower struct {
	ID            string       `gorm:"primaryKey;size:20" json:"borrower_id"`
	FirstName     string       `gorm:"size:100" json:"first_name"`
	LastName      string       `gorm:"size:100" json:"last_name"`
	Department    string       `gorm:"size:100" json:"department"`
	Email         string       `gorm:"size:100" json:"email"`
	ContactNumber string       `gorm:"size:100" json:"contact_number"`
	Type          BorrowerType `gorm:"column:borrower_type;size:20" json:"borrower_type"`

	Requests []BorrowRequest `gorm:"foreignKey:BorrowerID" json:"-"`
}

// BorrowRequest is one borrowing transaction; it owns one BorrowedBook line
// per requested book. Status is an aggregate of the line statuses plus the
// approval workflow.
type BorrowRequest struct {
	ID          uint          `gorm:"primaryKey" json:"req_id"`
	BorrowerID  string        `gorm:"index;size:20" json:"borrower_id"`
	Status      RequestStatus `gorm:"size:20;default:'Pending'" json:"status"`
	ReqCreated  time.Time     `gorm:"column:req_created" json:"req_created"`
	ReqApproved *time.Time    `gorm:"column:req_approve" json:"req_approve"`

	Borrower Borrower       `gorm:"foreignKey:BorrowerID" json:"-"`
	Books    []BorrowedBook `gorm:"foreignKey:RequestID" json:"books,omitempty"`
}

// BorrowedBook is a single book line within a borrow request. DueDate stays
// nil until the request is approved.
type BorrowedBook struct {
	ID        uint       `gorm:"primaryKey" json:"borrow_id"`
	RequestID uint       `gorm:"column:req_id;index" json:"req_id"`
	BookID    uint       `gorm:"index" json:"book_id"`
	DueDate   *time.Time `json:"due_date"`
	HoursDue  int        `gorm:"default:0" json:"hours_due"`
	Penalty   int        `gorm:"default:0" json:"penalty"`
	Status    LineStatus `gorm:"column:book_status;size:20;default:'Pending'" json:"book_status"`

	Book Book `gorm:"foreignKey:BookID" json:"-"`
}

// Book is a catalog entry. AvailableCopies must stay within
// [0, TotalCopies]; the repositories guard every increment and decrement.
type Book struct {
	ID              uint       `gorm:"primaryKey" json:"book_id"`
	Title           string     `gorm:"index;size:255" json:"title"`
	ISBN            string     `gorm:"uniqueIndex;size:20" json:"isbn"`
	Author          string     `gorm:"size:100" json:"author"`
	Description     string     `gorm:"type:text" json:"description,omitempty"`
	TotalCopies     int        `json:"total_copies"`
	AvailableCopies int        `json:"available_copies"`
	CoverImage      []byte     `gorm:"type:blob" json:"-"`
	Categories      []Category `gorm:"many2many:book_categories;" json:"categories,omitempty"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"category_id"`
	Name string `gorm:"uniqueIndex;size:100" json:"name"`
}

func (Admin) TableName() string {
	return "admin"
}

func (Borrower) TableName() string {
	return "borrowers"
}

func (BorrowRequest) TableName() string {
	return "book_req"
}

func (BorrowedBook) TableName() string {
	return "borrowed_books"
}

func (Book) TableName() string {
	return "available_books"
}

func (Category) TableName() string {
	return "categories"
}

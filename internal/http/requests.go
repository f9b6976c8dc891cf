package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/katsura919/book-master-server/internal/borrowing"
	"github.com/katsura919/book-master-server/internal/database/requests"
	"github.com/katsura919/book-master-server/internal/entities"
)

// RequestsController serves the borrow-request lifecycle: public submission
// and tracking plus the staff approval workflow.
type RequestsController struct {
	borrowing *borrowing.Service
	requests  *requests.Repository
}

func NewRequestsController(service *borrowing.Service, reqRepo *requests.Repository) *RequestsController {
	return &RequestsController{
		borrowing: service,
		requests:  reqRepo,
	}
}

type borrowBookRequest struct {
	BorrowerID    string                `json:"borrower_id"`
	FirstName     string                `json:"first_name"`
	LastName      string                `json:"last_name"`
	Email         string                `json:"email"`
	ContactNumber string                `json:"contact_number"`
	BorrowerType  entities.BorrowerType `json:"borrower_type"`
	Department    string                `json:"department"`
	BookIDs       []uint                `json:"book_ids"`
}

// BorrowBook submits a new borrow request.
func (controller *RequestsController) BorrowBook(c *gin.Context) {
	var body borrowBookRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	request, err := controller.borrowing.CreateRequest(borrowing.CreateRequestInput{
		BorrowerID:    body.BorrowerID,
		FirstName:     body.FirstName,
		LastName:      body.LastName,
		Email:         body.Email,
		ContactNumber: body.ContactNumber,
		BorrowerType:  body.BorrowerType,
		Department:    body.Department,
		BookIDs:       body.BookIDs,
	})
	if err != nil {
		respondLifecycleError(c, err, "request", "borrow book")
		return
	}
	respondCreated(c, gin.H{
		"message": "Borrow request submitted successfully",
		"req_id":  request.ID,
	})
}

// TrackRequest serves the public tracking view for a request.
func (controller *RequestsController) TrackRequest(c *gin.Context) {
	reqID, ok := parseIDParam(c, "req_id")
	if !ok {
		return
	}

	info, err := controller.requests.TrackRequest(reqID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "request")
		return
	}
	if err != nil {
		respondInternalError(c, err, "track request")
		return
	}
	c.JSON(http.StatusOK, info)
}

// GenerateQR renders a PNG QR code pointing at the tracking view.
func (controller *RequestsController) GenerateQR(c *gin.Context) {
	reqID, ok := parseIDParam(c, "req_id")
	if !ok {
		return
	}

	if _, err := controller.requests.GetRequest(reqID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "request")
			return
		}
		respondInternalError(c, err, "generate qr")
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	trackingURL := fmt.Sprintf("%s://%s/track-request/%d", scheme, c.Request.Host, reqID)

	png, err := qrcode.Encode(trackingURL, qrcode.Medium, 256)
	if err != nil {
		respondInternalError(c, err, "generate qr")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// GetRequest returns one request with its borrower and book lines.
func (controller *RequestsController) GetRequest(c *gin.Context) {
	reqID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := controller.requests.GetRequest(reqID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "request")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get request")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListAll returns every request.
func (controller *RequestsController) ListAll(c *gin.Context) {
	controller.list(c, "")
}

// ListByStatus returns a handler serving requests in one status.
func (controller *RequestsController) ListByStatus(status entities.RequestStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		controller.list(c, status)
	}
}

func (controller *RequestsController) list(c *gin.Context, status entities.RequestStatus) {
	summaries, err := controller.requests.ListRequests(status)
	if err != nil {
		respondInternalError(c, err, "list requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": summaries, "count": len(summaries)})
}

type requestIDBody struct {
	ReqID uint `json:"reqId"`
}

// ApproveRequest transitions a request to Approved, assigning due dates and
// taking copies off the shelf.
func (controller *RequestsController) ApproveRequest(c *gin.Context) {
	var body requestIDBody
	if err := c.ShouldBindJSON(&body); err != nil || body.ReqID == 0 {
		respondBadRequest(c, "reqId is required")
		return
	}

	if err := controller.borrowing.Approve(body.ReqID); err != nil {
		respondLifecycleError(c, err, "request", "approve request")
		return
	}
	respondSuccess(c, "Request approved successfully")
}

// RejectRequest marks a request Rejected.
func (controller *RequestsController) RejectRequest(c *gin.Context) {
	controller.transition(c, "Request rejected successfully", controller.borrowing.Reject)
}

// ReturnRequest marks a request Returned.
func (controller *RequestsController) ReturnRequest(c *gin.Context) {
	controller.transition(c, "Request returned successfully", controller.borrowing.Return)
}

func (controller *RequestsController) transition(c *gin.Context, message string, apply func(uint) error) {
	var body requestIDBody
	if err := c.ShouldBindJSON(&body); err != nil || body.ReqID == 0 {
		respondBadRequest(c, "reqId is required")
		return
	}

	if err := apply(body.ReqID); err != nil {
		respondLifecycleError(c, err, "request", "update request")
		return
	}
	respondSuccess(c, message)
}

// DeleteRequest hard-deletes a request and its lines.
func (controller *RequestsController) DeleteRequest(c *gin.Context) {
	reqID, ok := parseIDParam(c, "reqId")
	if !ok {
		return
	}

	if err := controller.borrowing.DeleteRequest(reqID); err != nil {
		respondLifecycleError(c, err, "request", "delete request")
		return
	}
	respondSuccess(c, "Request deleted successfully")
}

type renewBookRequest struct {
	BookID       uint                  `json:"book_id"`
	ReqID        uint                  `json:"req_id"`
	BorrowerType entities.BorrowerType `json:"borrower_type"`
}

// RenewBook extends a line's due date by the borrower type's loan period.
func (controller *RequestsController) RenewBook(c *gin.Context) {
	var body renewBookRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.BookID == 0 || body.ReqID == 0 {
		respondBadRequest(c, "book_id and req_id are required")
		return
	}

	if err := controller.borrowing.Renew(body.BookID, body.ReqID, body.BorrowerType); err != nil {
		respondLifecycleError(c, err, "book", "renew book")
		return
	}
	respondSuccess(c, "Book renewed successfully")
}

type removeBookRequest struct {
	BookID uint `json:"book_id"`
	ReqID  uint `json:"req_id"`
}

// RemoveBook deletes one book line from a request.
func (controller *RequestsController) RemoveBook(c *gin.Context) {
	var body removeBookRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.BookID == 0 || body.ReqID == 0 {
		respondBadRequest(c, "book_id and req_id are required")
		return
	}

	if err := controller.borrowing.RemoveLine(body.BookID, body.ReqID); err != nil {
		respondLifecycleError(c, err, "book", "remove book")
		return
	}
	respondSuccess(c, "Book removed successfully")
}

type updateBookStatusRequest struct {
	BookStatus entities.LineStatus `json:"book_status"`
}

// UpdateBookStatus sets the status of a book's lines directly. A Returned
// status puts a copy back on the shelf.
func (controller *RequestsController) UpdateBookStatus(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	var body updateBookStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	switch body.BookStatus {
	case entities.LineStatusPending, entities.LineStatusUnreturned,
		entities.LineStatusOverdue, entities.LineStatusReturned:
	default:
		respondBadRequest(c, "invalid book_status")
		return
	}

	if err := controller.borrowing.UpdateLineStatus(bookID, body.BookStatus); err != nil {
		respondLifecycleError(c, err, "book", "update book status")
		return
	}
	respondSuccess(c, "Book status updated successfully")
}

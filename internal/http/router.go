// Package http wires the HTTP surface: public catalog browsing, borrow
// request submission and tracking, and the staff administration endpoints.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/katsura919/book-master-server/internal/auth"
	"github.com/katsura919/book-master-server/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	catalogController := NewCatalogController(cfg.Catalog, cfg.Requests, cfg.MaxCoverSizeBytes)
	requestsController := NewRequestsController(cfg.Borrowing, cfg.Requests)
	dashboardController := NewDashboardController(cfg.Requests)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Public catalog endpoints
	router.GET("/search", catalogController.Search)
	router.GET("/all-books", catalogController.AllBooks)
	router.GET("/books/:id", catalogController.GetBook)
	router.GET("/book/:bookId", catalogController.GetBookDetail)
	router.GET("/available-books", catalogController.AvailableBooks)
	router.GET("/book-list", catalogController.BookList)
	router.GET("/categories", catalogController.Categories)
	router.GET("/api/top-borrowed-books", catalogController.TopBorrowed)
	router.GET("/api/total-books", catalogController.TotalBooks)
	router.GET("/api/total-available-books", catalogController.TotalAvailableBooks)
	router.GET("/api/total-borrowed-books", catalogController.TotalBorrowedBooks)

	// Public borrowing endpoints
	router.POST("/borrow-book", requestsController.BorrowBook)
	router.GET("/track-request/:req_id", requestsController.TrackRequest)
	router.GET("/generate-qr/:req_id", requestsController.GenerateQR)

	// Auth endpoints
	if cfg.AuthService != nil {
		authController := NewAuthController(cfg.AuthService)
		router.POST("/api/register", authController.Register)
		router.POST("/api/login", authController.Login)
	}

	// Staff endpoints; guarded by the bearer-token middleware when auth is
	// enabled, pass-through otherwise
	staff := router.Group("/")
	if cfg.AuthService != nil {
		staff.Use(auth.Middleware(cfg.AuthService))
	}

	// Request management
	staff.GET("/req/:id", requestsController.GetRequest)
	staff.GET("/all-req", requestsController.ListAll)
	staff.GET("/pending-req", requestsController.ListByStatus(entities.RequestStatusPending))
	staff.GET("/approved-req", requestsController.ListByStatus(entities.RequestStatusApproved))
	staff.GET("/rejected-req", requestsController.ListByStatus(entities.RequestStatusRejected))
	staff.GET("/overdue-req", requestsController.ListByStatus(entities.RequestStatusOverdue))
	staff.GET("/return-req", requestsController.ListByStatus(entities.RequestStatusReturned))
	staff.POST("/approve-request", requestsController.ApproveRequest)
	staff.POST("/reject-request", requestsController.RejectRequest)
	staff.POST("/return-request", requestsController.ReturnRequest)
	staff.DELETE("/delete-request/:reqId", requestsController.DeleteRequest)
	staff.POST("/renew-book", requestsController.RenewBook)
	staff.DELETE("/remove-book", requestsController.RemoveBook)
	staff.POST("/update-book-status/:bookId", requestsController.UpdateBookStatus)

	// Catalog management
	staff.POST("/books", catalogController.CreateBook)
	staff.PUT("/book-edit/:bookId", catalogController.UpdateBook)
	staff.DELETE("/delete-book/:bookId", catalogController.DeleteBook)
	staff.GET("/book-requests/:bookId", catalogController.BookRequests)

	// Dashboard
	staff.GET("/request-counts", dashboardController.RequestCounts)
	staff.GET("/request-date", dashboardController.RequestDate)
	staff.GET("/chart-data", dashboardController.ChartData)
	staff.GET("/borrowers", dashboardController.Borrowers)
	staff.GET("/api/borrowers/count", dashboardController.BorrowersCount)
	staff.GET("/api/borrowers/type-distribution", dashboardController.BorrowerTypeDistribution)
	staff.GET("/api/borrowers/:borrowerId/requests", dashboardController.BorrowerRequests)

	return router
}

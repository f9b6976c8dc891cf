package http

import (
	"github.com/katsura919/book-master-server/internal/auth"
	"github.com/katsura919/book-master-server/internal/borrowing"
	"github.com/katsura919/book-master-server/internal/database"
	"github.com/katsura919/book-master-server/internal/database/catalog"
	"github.com/katsura919/book-master-server/internal/database/requests"
)

// RouterConfig contains all dependencies and configuration needed to create
// the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database  *database.Database
	Catalog   *catalog.Repository
	Requests  *requests.Repository
	Borrowing *borrowing.Service

	// Authentication (nil disables the register/login endpoints and the
	// staff route guard)
	AuthService *auth.Service

	// Upload limits
	MaxCoverSizeBytes int64

	// Application info
	Version string
}

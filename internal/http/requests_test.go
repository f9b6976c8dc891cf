package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katsura919/book-master-server/internal/borrowing"
	"github.com/katsura919/book-master-server/internal/database"
	"github.com/katsura919/book-master-server/internal/database/catalog"
	"github.com/katsura919/book-master-server/internal/database/requests"
	"github.com/katsura919/book-master-server/internal/entities"
	"github.com/katsura919/book-master-server/internal/policy"
)

func setupRequestsTest(t *testing.T) (*gin.Engine, *database.Database, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	catalogRepo := catalog.NewRepository(db.DB)
	requestsRepo := requests.NewRepository(db.DB)
	service := borrowing.NewService(requestsRepo, catalogRepo, policy.Default())

	router := NewRouter(RouterConfig{
		Database:          db,
		Catalog:           catalogRepo,
		Requests:          requestsRepo,
		Borrowing:         service,
		MaxCoverSizeBytes: 1 << 20,
		Version:           "test",
	})

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return router, db, cleanup
}

func seedTestBook(t *testing.T, db *database.Database, title string, copies int) uint {
	t.Helper()
	book := &entities.Book{
		Title:           title,
		ISBN:            "isbn-" + title,
		Author:          "Author",
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
	require.NoError(t, db.DB.Create(book).Error)
	return book.ID
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func borrowBody(bookIDs ...uint) map[string]any {
	return map[string]any{
		"borrower_id":    "S001",
		"first_name":     "Maria",
		"last_name":      "Santos",
		"email":          "maria@example.com",
		"contact_number": "09171234567",
		"borrower_type":  "student",
		"department":     "Engineering",
		"book_ids":       bookIDs,
	}
}

func TestBorrowBook(t *testing.T) {
	t.Run("submits a request", func(t *testing.T) {
		router, db, cleanup := setupRequestsTest(t)
		defer cleanup()

		bookID := seedTestBook(t, db, "Clean Code", 2)
		w := postJSON(router, "/borrow-book", borrowBody(bookID))

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotZero(t, response["req_id"])
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		router, db, cleanup := setupRequestsTest(t)
		defer cleanup()

		bookID := seedTestBook(t, db, "SICP", 1)
		body := borrowBody(bookID)
		body["email"] = ""
		w := postJSON(router, "/borrow-book", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects over the student cap", func(t *testing.T) {
		router, db, cleanup := setupRequestsTest(t)
		defer cleanup()

		var bookIDs []uint
		for _, title := range []string{"A", "B", "C", "D"} {
			bookIDs = append(bookIDs, seedTestBook(t, db, title, 1))
		}
		w := postJSON(router, "/borrow-book", borrowBody(bookIDs...))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "up to 3 books")
	})
}

func TestApproveRequest(t *testing.T) {
	t.Run("approves and decrements inventory", func(t *testing.T) {
		router, db, cleanup := setupRequestsTest(t)
		defer cleanup()

		bookID := seedTestBook(t, db, "DDIA", 2)
		w := postJSON(router, "/borrow-book", borrowBody(bookID))
		require.Equal(t, http.StatusCreated, w.Code)

		var created map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		reqID := uint(created["req_id"].(float64))

		w = postJSON(router, "/approve-request", map[string]any{"reqId": reqID})
		assert.Equal(t, http.StatusOK, w.Code)

		var book entities.Book
		require.NoError(t, db.DB.First(&book, bookID).Error)
		assert.Equal(t, 1, book.AvailableCopies)
	})

	t.Run("missing request", func(t *testing.T) {
		router, _, cleanup := setupRequestsTest(t)
		defer cleanup()

		w := postJSON(router, "/approve-request", map[string]any{"reqId": 9999})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing body", func(t *testing.T) {
		router, _, cleanup := setupRequestsTest(t)
		defer cleanup()

		w := postJSON(router, "/approve-request", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTrackRequest(t *testing.T) {
	t.Run("serves the tracking view", func(t *testing.T) {
		router, db, cleanup := setupRequestsTest(t)
		defer cleanup()

		bookID := seedTestBook(t, db, "Tracked", 1)
		w := postJSON(router, "/borrow-book", borrowBody(bookID))
		require.Equal(t, http.StatusCreated, w.Code)

		req, _ := http.NewRequest("GET", "/track-request/1", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var info map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
		assert.Equal(t, "Maria Santos", info["borrower_name"])
		assert.Equal(t, "Pending", info["request_status"])
	})

	t.Run("missing request", func(t *testing.T) {
		router, _, cleanup := setupRequestsTest(t)
		defer cleanup()

		req, _ := http.NewRequest("GET", "/track-request/9999", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListRequests(t *testing.T) {
	router, db, cleanup := setupRequestsTest(t)
	defer cleanup()

	bookID := seedTestBook(t, db, "Listed", 1)
	w := postJSON(router, "/borrow-book", borrowBody(bookID))
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("all requests", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/all-req", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Requests []requests.RequestSummary `json:"requests"`
			Count    int                       `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 1, response.Count)
		require.Len(t, response.Requests, 1)
		assert.Len(t, response.Requests[0].Books, 1)
	})

	t.Run("pending filter matches", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/pending-req", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "\"count\":1")
	})

	t.Run("approved filter is empty", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/approved-req", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "\"count\":0")
	})
}

func TestUpdateBookStatus(t *testing.T) {
	t.Run("rejects an unknown status", func(t *testing.T) {
		router, db, cleanup := setupRequestsTest(t)
		defer cleanup()

		bookID := seedTestBook(t, db, "Status", 1)
		w := postJSON(router, "/borrow-book", borrowBody(bookID))
		require.Equal(t, http.StatusCreated, w.Code)

		w = postJSON(router, "/update-book-status/1", map[string]any{"book_status": "Lost"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("updates line status", func(t *testing.T) {
		router, db, cleanup := setupRequestsTest(t)
		defer cleanup()

		bookID := seedTestBook(t, db, "Status", 1)
		w := postJSON(router, "/borrow-book", borrowBody(bookID))
		require.Equal(t, http.StatusCreated, w.Code)

		w = postJSON(router, "/update-book-status/1", map[string]any{"book_status": "Unreturned"})
		assert.Equal(t, http.StatusOK, w.Code)

		var line entities.BorrowedBook
		require.NoError(t, db.DB.First(&line, "book_id = ?", bookID).Error)
		assert.Equal(t, entities.LineStatusUnreturned, line.Status)
	})
}

func TestHealthAndPing(t *testing.T) {
	router, _, cleanup := setupRequestsTest(t)
	defer cleanup()

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	req, _ = http.NewRequest("GET", "/ping", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

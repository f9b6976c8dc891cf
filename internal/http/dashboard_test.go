package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	router, db, cleanup := setupRequestsTest(t)
	defer cleanup()

	bookID := seedTestBook(t, db, "Dashboard", 2)
	w := postJSON(router, "/borrow-book", borrowBody(bookID))
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("request counts", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/request-counts", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var counts map[string]int64
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counts))
		assert.Equal(t, int64(1), counts["pending"])
		assert.Equal(t, int64(1), counts["total"])
	})

	t.Run("request date windows", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/request-date", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var windows map[string]int64
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &windows))
		assert.Equal(t, int64(1), windows["today"])
		assert.Equal(t, int64(0), windows["yesterday"])
		assert.Equal(t, int64(1), windows["total"])
	})

	t.Run("chart data", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/chart-data", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "chart_data")
	})

	t.Run("borrower stats", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/borrowers/count", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "\"count\":1")

		req, _ = http.NewRequest("GET", "/api/borrowers/S001/requests", nil)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "\"count\":1")
	})
}

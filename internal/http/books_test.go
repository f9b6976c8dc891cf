package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katsura919/book-master-server/internal/entities"
)

func multipartBookForm(t *testing.T, fields map[string]string, cover []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if cover != nil {
		part, err := writer.CreateFormFile("cover_image", "cover.jpg")
		require.NoError(t, err)
		_, err = part.Write(cover)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestCreateBook(t *testing.T) {
	t.Run("creates a book with cover and categories", func(t *testing.T) {
		router, db, cleanup := setupRequestsTest(t)
		defer cleanup()

		var fiction entities.Category
		require.NoError(t, db.DB.First(&fiction, "name = ?", "Fiction").Error)

		body, contentType := multipartBookForm(t, map[string]string{
			"title":        "The Pragmatic Programmer",
			"isbn":         "978-0135957059",
			"author":       "Hunt and Thomas",
			"description":  "A classic",
			"total_copies": "4",
			"category_ids": "1",
		}, []byte("fake-jpeg-bytes"))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/books", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var book entities.Book
		require.NoError(t, db.DB.First(&book, "isbn = ?", "978-0135957059").Error)
		assert.Equal(t, 4, book.TotalCopies)
		assert.Equal(t, 4, book.AvailableCopies)
		assert.Equal(t, []byte("fake-jpeg-bytes"), book.CoverImage)
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		router, _, cleanup := setupRequestsTest(t)
		defer cleanup()

		body, contentType := multipartBookForm(t, map[string]string{"title": "No ISBN"}, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/books", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects an oversized cover", func(t *testing.T) {
		router, _, cleanup := setupRequestsTest(t)
		defer cleanup()

		body, contentType := multipartBookForm(t, map[string]string{
			"title":  "Huge",
			"isbn":   "978-huge",
			"author": "A",
		}, bytes.Repeat([]byte("x"), (1<<20)+1))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/books", body)
		req.Header.Set("Content-Type", contentType)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "maximum size")
	})
}

func TestGetBookDetail(t *testing.T) {
	t.Run("serves a data-URI cover", func(t *testing.T) {
		router, db, cleanup := setupRequestsTest(t)
		defer cleanup()

		book := &entities.Book{
			Title: "Covered", ISBN: "978-c", Author: "A",
			TotalCopies: 1, AvailableCopies: 1,
			CoverImage: []byte("img"),
		}
		require.NoError(t, db.DB.Create(book).Error)

		req, _ := http.NewRequest("GET", "/book/1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var view map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
		cover, _ := view["cover_image"].(string)
		assert.True(t, strings.HasPrefix(cover, "data:image/jpeg;base64,"))
	})

	t.Run("missing book", func(t *testing.T) {
		router, _, cleanup := setupRequestsTest(t)
		defer cleanup()

		req, _ := http.NewRequest("GET", "/book/9999", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSearchBooks(t *testing.T) {
	router, db, cleanup := setupRequestsTest(t)
	defer cleanup()

	seedTestBook(t, db, "Designing Data-Intensive Applications", 1)
	seedTestBook(t, db, "Domain-Driven Design", 1)

	t.Run("requires a query", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/search", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("matches on title", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/search?query=Data-Intensive", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "\"count\":1")
	})
}

func TestUpdateBookKeepsCover(t *testing.T) {
	router, db, cleanup := setupRequestsTest(t)
	defer cleanup()

	book := &entities.Book{
		Title: "Original", ISBN: "978-o", Author: "A",
		TotalCopies: 2, AvailableCopies: 2,
		CoverImage: []byte("original-cover"),
	}
	require.NoError(t, db.DB.Create(book).Error)

	body, contentType := multipartBookForm(t, map[string]string{"title": "Renamed"}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/book-edit/1", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var updated entities.Book
	require.NoError(t, db.DB.First(&updated, book.ID).Error)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, []byte("original-cover"), updated.CoverImage)
}

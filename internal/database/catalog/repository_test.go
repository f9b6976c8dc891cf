package catalog

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/katsura919/book-master-server/internal/database"
	"github.com/katsura919/book-master-server/internal/entities"
)

func setupCatalogTest(t *testing.T) (*Repository, *database.Database, func()) {
	t.Helper()

	dbPath := "./test_catalog_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return NewRepository(db.DB), db, cleanup
}

func TestRepository_CreateBook(t *testing.T) {
	t.Run("creates a book with category links", func(t *testing.T) {
		repo, db, cleanup := setupCatalogTest(t)
		defer cleanup()

		var fiction entities.Category
		require.NoError(t, db.DB.First(&fiction, "name = ?", "Fiction").Error)

		book := &entities.Book{
			Title:           "The Little Go Book",
			ISBN:            "978-1",
			Author:          "Karl Seguin",
			TotalCopies:     3,
			AvailableCopies: 3,
		}
		require.NoError(t, repo.CreateBook(book, []uint{fiction.ID}))

		detail, err := repo.GetBookDetail(book.ID)
		require.NoError(t, err)
		require.Len(t, detail.Categories, 1)
		assert.Equal(t, "Fiction", detail.Categories[0].Name)
	})

	t.Run("creates a book without categories", func(t *testing.T) {
		repo, _, cleanup := setupCatalogTest(t)
		defer cleanup()

		book := &entities.Book{Title: "Plain", ISBN: "978-2", Author: "A", TotalCopies: 1, AvailableCopies: 1}
		require.NoError(t, repo.CreateBook(book, nil))
		assert.NotZero(t, book.ID)
	})
}

func TestRepository_SearchBooks(t *testing.T) {
	repo, _, cleanup := setupCatalogTest(t)
	defer cleanup()

	require.NoError(t, repo.CreateBook(&entities.Book{
		Title: "Designing Data-Intensive Applications", ISBN: "978-1449373320",
		Author: "Martin Kleppmann", TotalCopies: 1, AvailableCopies: 1,
	}, nil))
	require.NoError(t, repo.CreateBook(&entities.Book{
		Title: "The Go Programming Language", ISBN: "978-0134190440",
		Author: "Donovan and Kernighan", TotalCopies: 1, AvailableCopies: 1,
	}, nil))

	t.Run("matches by title", func(t *testing.T) {
		books, err := repo.SearchBooks("Data-Intensive", 10, 0)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "Martin Kleppmann", books[0].Author)
	})

	t.Run("matches by author", func(t *testing.T) {
		books, err := repo.SearchBooks("Kernighan", 10, 0)
		require.NoError(t, err)
		assert.Len(t, books, 1)
	})

	t.Run("matches by isbn", func(t *testing.T) {
		books, err := repo.SearchBooks("978-1449373320", 10, 0)
		require.NoError(t, err)
		assert.Len(t, books, 1)
	})

	t.Run("no match", func(t *testing.T) {
		books, err := repo.SearchBooks("nonexistent", 10, 0)
		require.NoError(t, err)
		assert.Empty(t, books)
	})
}

func TestRepository_InventoryGuards(t *testing.T) {
	t.Run("decrement stops at zero", func(t *testing.T) {
		repo, _, cleanup := setupCatalogTest(t)
		defer cleanup()

		book := &entities.Book{Title: "Guarded", ISBN: "978-3", Author: "A", TotalCopies: 1, AvailableCopies: 1}
		require.NoError(t, repo.CreateBook(book, nil))

		taken, err := repo.DecrementAvailable(book.ID)
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = repo.DecrementAvailable(book.ID)
		require.NoError(t, err)
		assert.False(t, taken)

		updated, err := repo.GetBookByID(book.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, updated.AvailableCopies)
	})

	t.Run("increment stops at total copies", func(t *testing.T) {
		repo, _, cleanup := setupCatalogTest(t)
		defer cleanup()

		book := &entities.Book{Title: "Capped", ISBN: "978-4", Author: "A", TotalCopies: 2, AvailableCopies: 2}
		require.NoError(t, repo.CreateBook(book, nil))

		restored, err := repo.IncrementAvailable(book.ID)
		require.NoError(t, err)
		assert.False(t, restored)

		updated, err := repo.GetBookByID(book.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.AvailableCopies)
	})
}

func TestRepository_ListBooks(t *testing.T) {
	repo, db, cleanup := setupCatalogTest(t)
	defer cleanup()

	var science entities.Category
	require.NoError(t, db.DB.First(&science, "name = ?", "Science").Error)

	require.NoError(t, repo.CreateBook(&entities.Book{
		Title: "Cosmos", ISBN: "978-5", Author: "Carl Sagan", TotalCopies: 1, AvailableCopies: 1,
	}, []uint{science.ID}))
	require.NoError(t, repo.CreateBook(&entities.Book{
		Title: "Uncategorized", ISBN: "978-6", Author: "A", TotalCopies: 1, AvailableCopies: 0,
	}, nil))

	t.Run("lists everything without a filter", func(t *testing.T) {
		books, err := repo.ListBooks(0, 10, 0)
		require.NoError(t, err)
		assert.Len(t, books, 2)
	})

	t.Run("filters by category", func(t *testing.T) {
		books, err := repo.ListBooks(science.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "Cosmos", books[0].Title)
	})

	t.Run("available listing excludes exhausted books", func(t *testing.T) {
		books, err := repo.ListAvailable()
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "Cosmos", books[0].Title)
	})
}

func TestRepository_DeleteBook(t *testing.T) {
	t.Run("removes the book and its category links", func(t *testing.T) {
		repo, db, cleanup := setupCatalogTest(t)
		defer cleanup()

		var history entities.Category
		require.NoError(t, db.DB.First(&history, "name = ?", "History").Error)

		book := &entities.Book{Title: "Doomed", ISBN: "978-7", Author: "A", TotalCopies: 1, AvailableCopies: 1}
		require.NoError(t, repo.CreateBook(book, []uint{history.ID}))

		affected, err := repo.DeleteBook(book.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		_, err = repo.GetBookByID(book.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

		var links int64
		require.NoError(t, db.DB.Table("book_categories").
			Where("book_id = ?", book.ID).Count(&links).Error)
		assert.Zero(t, links)
	})

	t.Run("missing book", func(t *testing.T) {
		repo, _, cleanup := setupCatalogTest(t)
		defer cleanup()

		affected, err := repo.DeleteBook(9999)
		require.NoError(t, err)
		assert.Zero(t, affected)
	})
}

func TestRepository_Stats(t *testing.T) {
	repo, db, cleanup := setupCatalogTest(t)
	defer cleanup()

	require.NoError(t, repo.CreateBook(&entities.Book{
		Title: "First", ISBN: "978-8", Author: "A", TotalCopies: 3, AvailableCopies: 2,
	}, nil))
	require.NoError(t, repo.CreateBook(&entities.Book{
		Title: "Second", ISBN: "978-9", Author: "B", TotalCopies: 1, AvailableCopies: 1,
	}, nil))

	borrower := &entities.Borrower{ID: "S001", FirstName: "Maria", LastName: "Santos",
		Type: entities.BorrowerTypeStudent}
	require.NoError(t, db.DB.Create(borrower).Error)
	request := &entities.BorrowRequest{BorrowerID: borrower.ID,
		Status: entities.RequestStatusApproved}
	require.NoError(t, db.DB.Create(request).Error)
	require.NoError(t, db.DB.Create(&entities.BorrowedBook{
		RequestID: request.ID, BookID: 1, Status: entities.LineStatusUnreturned,
	}).Error)

	titles, err := repo.CountDistinctTitles()
	require.NoError(t, err)
	assert.Equal(t, int64(2), titles)

	available, err := repo.TotalAvailableCopies()
	require.NoError(t, err)
	assert.Equal(t, int64(3), available)

	borrowed, err := repo.CountBorrowedLines()
	require.NoError(t, err)
	assert.Equal(t, int64(1), borrowed)

	top, err := repo.TopBorrowed(5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, int64(1), top[0].BorrowCount)
}

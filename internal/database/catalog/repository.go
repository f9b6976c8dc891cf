// Package catalog provides database operations for the book catalog and the
// available-copy inventory.
//
// The inventory contract: available_copies reflects the count of copies not
// currently out on a non-terminal borrow line, bounded by [0, total_copies].
// Every increment and decrement is guarded in SQL so concurrent lifecycle
// transitions cannot push the count out of range.
package catalog

import (
	"gorm.io/gorm"

	"github.com/katsura919/book-master-server/internal/entities"
)

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook inserts a book and links it to the given categories in one
// transaction.
func (r *Repository) CreateBook(book *entities.Book, categoryIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories").Create(book).Error; err != nil {
			return err
		}
		if len(categoryIDs) == 0 {
			return nil
		}
		var categories []entities.Category
		if err := tx.Find(&categories, categoryIDs).Error; err != nil {
			return err
		}
		return tx.Model(book).Association("Categories").Append(&categories)
	})
}

// GetBookByID retrieves a single book without its category associations.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBookDetail retrieves a book with its categories preloaded.
func (r *Repository) GetBookDetail(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Categories").First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateBook saves the full book row. Returns the number of rows affected.
func (r *Repository) UpdateBook(book *entities.Book) (int64, error) {
	result := r.db.Model(&entities.Book{}).Where("id = ?", book.ID).
		Select("Title", "ISBN", "Author", "Description", "TotalCopies", "AvailableCopies", "CoverImage").
		Updates(book)
	return result.RowsAffected, result.Error
}

// DeleteBook hard-deletes a catalog entry. Category links cascade through
// the join table.
func (r *Repository) DeleteBook(id uint) (int64, error) {
	result := r.db.Delete(&entities.Book{}, id)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		if err := r.db.Exec("DELETE FROM book_categories WHERE book_id = ?", id).Error; err != nil {
			return result.RowsAffected, err
		}
	}
	return result.RowsAffected, nil
}

// SearchBooks matches title, author, or ISBN against the query with
// pagination.
func (r *Repository) SearchBooks(query string, limit, offset int) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + query + "%"
	err := r.db.
		Where("title LIKE ? OR author LIKE ? OR isbn LIKE ?", pattern, pattern, pattern).
		Limit(limit).Offset(offset).
		Find(&books).Error
	return books, err
}

// ListBooks returns books with categories preloaded, optionally filtered to
// one category, with pagination.
func (r *Repository) ListBooks(categoryID uint, limit, offset int) ([]entities.Book, error) {
	var books []entities.Book
	query := r.db.Preload("Categories")
	if categoryID > 0 {
		query = query.
			Joins("JOIN book_categories ON book_categories.book_id = available_books.id").
			Where("book_categories.category_id = ?", categoryID)
	}
	err := query.Limit(limit).Offset(offset).Find(&books).Error
	return books, err
}

// ListAvailable returns books that currently have at least one free copy.
func (r *Repository) ListAvailable() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.
		Select("id", "title", "isbn", "author", "available_copies").
		Where("available_copies > 0").
		Find(&books).Error
	return books, err
}

// ListAll returns every catalog entry without cover blobs.
func (r *Repository) ListAll() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.
		Select("id", "title", "isbn", "author", "total_copies", "available_copies").
		Find(&books).Error
	return books, err
}

// TopBorrowedBook is one row of the most-borrowed ranking.
type TopBorrowedBook struct {
	BookID      uint   `json:"book_id"`
	Title       string `json:"title"`
	CoverImage  []byte `json:"-"`
	BorrowCount int64  `json:"borrow_count"`
}

// TopBorrowed ranks books by how often they appear on borrow lines.
func (r *Repository) TopBorrowed(limit int) ([]TopBorrowedBook, error) {
	var rows []TopBorrowedBook
	err := r.db.Raw(`
		SELECT ab.id AS book_id, ab.title, ab.cover_image, COUNT(bb.book_id) AS borrow_count
		FROM borrowed_books bb
		JOIN available_books ab ON bb.book_id = ab.id
		GROUP BY bb.book_id
		ORDER BY borrow_count DESC
		LIMIT ?`, limit).Scan(&rows).Error
	return rows, err
}

// CountDistinctTitles counts unique titles in the catalog.
func (r *Repository) CountDistinctTitles() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Distinct("title").Count(&count).Error
	return count, err
}

// TotalAvailableCopies sums free copies across the catalog.
func (r *Repository) TotalAvailableCopies() (int64, error) {
	var total *int64
	err := r.db.Model(&entities.Book{}).Select("SUM(available_copies)").Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}

// CountBorrowedLines counts lines currently out (status Unreturned).
func (r *Repository) CountBorrowedLines() (int64, error) {
	var count int64
	err := r.db.Model(&entities.BorrowedBook{}).
		Where("book_status = ?", entities.LineStatusUnreturned).
		Count(&count).Error
	return count, err
}

// Categories returns all categories.
func (r *Repository) Categories() ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.Find(&categories).Error
	return categories, err
}

// DecrementAvailable takes one copy of a book off the shelf. The decrement
// is skipped (not an error) when no copies are free; the caller treats that
// as best-effort per the approval policy.
func DecrementAvailable(db *gorm.DB, bookID uint) (bool, error) {
	result := db.Model(&entities.Book{}).
		Where("id = ? AND available_copies > 0", bookID).
		UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
	return result.RowsAffected > 0, result.Error
}

// IncrementAvailable puts one copy of a book back on the shelf, capped at
// total_copies.
func IncrementAvailable(db *gorm.DB, bookID uint) (bool, error) {
	result := db.Model(&entities.Book{}).
		Where("id = ? AND available_copies < total_copies", bookID).
		UpdateColumn("available_copies", gorm.Expr("available_copies + 1"))
	return result.RowsAffected > 0, result.Error
}

// DecrementAvailable is the method form for callers holding the repository.
func (r *Repository) DecrementAvailable(bookID uint) (bool, error) {
	return DecrementAvailable(r.db, bookID)
}

// IncrementAvailable is the method form for callers holding the repository.
func (r *Repository) IncrementAvailable(bookID uint) (bool, error) {
	return IncrementAvailable(r.db, bookID)
}

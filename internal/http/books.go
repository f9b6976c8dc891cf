package http

import (
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/katsura919/book-master-server/internal/database/catalog"
	"github.com/katsura919/book-master-server/internal/database/requests"
	"github.com/katsura919/book-master-server/internal/entities"
)

// CatalogController serves the book catalog: public browsing and search plus
// the staff create/edit/delete surface.
type CatalogController struct {
	catalog      *catalog.Repository
	requests     *requests.Repository
	maxCoverSize int64
}

func NewCatalogController(catRepo *catalog.Repository, reqRepo *requests.Repository, maxCoverSize int64) *CatalogController {
	return &CatalogController{
		catalog:      catRepo,
		requests:     reqRepo,
		maxCoverSize: maxCoverSize,
	}
}

// bookView is a catalog entry with the cover blob encoded for JSON.
type bookView struct {
	BookID          uint                `json:"book_id"`
	Title           string              `json:"title"`
	ISBN            string              `json:"isbn"`
	Author          string              `json:"author"`
	Description     string              `json:"description,omitempty"`
	TotalCopies     int                 `json:"total_copies"`
	AvailableCopies int                 `json:"available_copies"`
	CoverImage      string              `json:"cover_image,omitempty"`
	Categories      []entities.Category `json:"categories,omitempty"`
}

func toBookView(book entities.Book, dataURI bool) bookView {
	view := bookView{
		BookID:          book.ID,
		Title:           book.Title,
		ISBN:            book.ISBN,
		Author:          book.Author,
		Description:     book.Description,
		TotalCopies:     book.TotalCopies,
		AvailableCopies: book.AvailableCopies,
		Categories:      book.Categories,
	}
	if len(book.CoverImage) > 0 {
		encoded := base64.StdEncoding.EncodeToString(book.CoverImage)
		if dataURI {
			encoded = "data:image/jpeg;base64," + encoded
		}
		view.CoverImage = encoded
	}
	return view
}

func toBookViews(books []entities.Book) []bookView {
	views := make([]bookView, 0, len(books))
	for _, book := range books {
		views = append(views, toBookView(book, false))
	}
	return views
}

// Search matches books by title, author, or ISBN.
func (controller *CatalogController) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		respondBadRequest(c, "query parameter is required")
		return
	}
	limit, offset := parsePagination(c)

	books, err := controller.catalog.SearchBooks(query, limit, offset)
	if err != nil {
		respondInternalError(c, err, "search books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": toBookViews(books), "count": len(books)})
}

// AllBooks lists catalog entries, optionally filtered to one category.
func (controller *CatalogController) AllBooks(c *gin.Context) {
	limit, offset := parsePagination(c)

	var categoryID uint
	if raw := c.Query("category_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "invalid category_id")
			return
		}
		categoryID = uint(parsed)
	}

	books, err := controller.catalog.ListBooks(categoryID, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": toBookViews(books), "count": len(books)})
}

// GetBook returns a single catalog entry.
func (controller *CatalogController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.catalog.GetBookByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, toBookView(*book, false))
}

// GetBookDetail returns a book with its categories and a data-URI cover.
func (controller *CatalogController) GetBookDetail(c *gin.Context) {
	id, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	book, err := controller.catalog.GetBookDetail(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book detail")
		return
	}
	c.JSON(http.StatusOK, toBookView(*book, true))
}

// AvailableBooks lists books with at least one free copy.
func (controller *CatalogController) AvailableBooks(c *gin.Context) {
	books, err := controller.catalog.ListAvailable()
	if err != nil {
		respondInternalError(c, err, "list available books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": toBookViews(books)})
}

// BookList lists the whole catalog without covers.
func (controller *CatalogController) BookList(c *gin.Context) {
	books, err := controller.catalog.ListAll()
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": toBookViews(books)})
}

// Categories lists all catalog categories.
func (controller *CatalogController) Categories(c *gin.Context) {
	categories, err := controller.catalog.Categories()
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// TopBorrowed ranks the most-borrowed books.
func (controller *CatalogController) TopBorrowed(c *gin.Context) {
	rows, err := controller.catalog.TopBorrowed(10)
	if err != nil {
		respondInternalError(c, err, "top borrowed books")
		return
	}

	type rankedBook struct {
		BookID      uint   `json:"book_id"`
		Title       string `json:"title"`
		CoverImage  string `json:"cover_image,omitempty"`
		BorrowCount int64  `json:"borrow_count"`
	}
	ranked := make([]rankedBook, 0, len(rows))
	for _, row := range rows {
		entry := rankedBook{
			BookID:      row.BookID,
			Title:       row.Title,
			BorrowCount: row.BorrowCount,
		}
		if len(row.CoverImage) > 0 {
			entry.CoverImage = base64.StdEncoding.EncodeToString(row.CoverImage)
		}
		ranked = append(ranked, entry)
	}
	c.JSON(http.StatusOK, gin.H{"books": ranked})
}

// TotalBooks counts distinct titles in the catalog.
func (controller *CatalogController) TotalBooks(c *gin.Context) {
	count, err := controller.catalog.CountDistinctTitles()
	if err != nil {
		respondInternalError(c, err, "count books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_books": count})
}

// TotalAvailableBooks sums free copies across the catalog.
func (controller *CatalogController) TotalAvailableBooks(c *gin.Context) {
	total, err := controller.catalog.TotalAvailableCopies()
	if err != nil {
		respondInternalError(c, err, "count available books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_available_books": total})
}

// TotalBorrowedBooks counts lines currently out.
func (controller *CatalogController) TotalBorrowedBooks(c *gin.Context) {
	count, err := controller.catalog.CountBorrowedLines()
	if err != nil {
		respondInternalError(c, err, "count borrowed books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_borrowed_books": count})
}

// CreateBook adds a catalog entry from a multipart form with an optional
// cover image.
func (controller *CatalogController) CreateBook(c *gin.Context) {
	title := c.PostForm("title")
	isbn := c.PostForm("isbn")
	author := c.PostForm("author")
	if title == "" || isbn == "" || author == "" {
		respondBadRequest(c, "title, isbn, and author are required")
		return
	}

	totalCopies, err := strconv.Atoi(c.DefaultPostForm("total_copies", "1"))
	if err != nil || totalCopies < 1 {
		respondBadRequest(c, "invalid total_copies")
		return
	}

	categoryIDs, ok := parseCategoryIDs(c)
	if !ok {
		return
	}

	cover, ok := controller.readCover(c)
	if !ok {
		return
	}

	book := &entities.Book{
		Title:           title,
		ISBN:            isbn,
		Author:          author,
		Description:     c.PostForm("description"),
		TotalCopies:     totalCopies,
		AvailableCopies: totalCopies,
		CoverImage:      cover,
	}
	if err := controller.catalog.CreateBook(book, categoryIDs); err != nil {
		respondInternalError(c, err, "create book")
		return
	}
	respondCreated(c, toBookView(*book, false))
}

// UpdateBook edits a catalog entry. The existing cover is kept when the form
// carries no replacement.
func (controller *CatalogController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	book, err := controller.catalog.GetBookByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "update book")
		return
	}

	if title := c.PostForm("title"); title != "" {
		book.Title = title
	}
	if isbn := c.PostForm("isbn"); isbn != "" {
		book.ISBN = isbn
	}
	if author := c.PostForm("author"); author != "" {
		book.Author = author
	}
	if description, ok := c.GetPostForm("description"); ok {
		book.Description = description
	}
	if raw := c.PostForm("total_copies"); raw != "" {
		totalCopies, err := strconv.Atoi(raw)
		if err != nil || totalCopies < 1 {
			respondBadRequest(c, "invalid total_copies")
			return
		}
		book.TotalCopies = totalCopies
		if book.AvailableCopies > totalCopies {
			book.AvailableCopies = totalCopies
		}
	}
	if cover, ok := controller.readCover(c); !ok {
		return
	} else if cover != nil {
		book.CoverImage = cover
	}

	affected, err := controller.catalog.UpdateBook(book)
	if err != nil {
		respondInternalError(c, err, "update book")
		return
	}
	if affected == 0 {
		respondNotFound(c, "book")
		return
	}
	respondSuccess(c, "Book updated successfully")
}

// DeleteBook removes a catalog entry.
func (controller *CatalogController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	affected, err := controller.catalog.DeleteBook(id)
	if err != nil {
		respondInternalError(c, err, "delete book")
		return
	}
	if affected == 0 {
		respondNotFound(c, "book")
		return
	}
	respondSuccess(c, "Book deleted successfully")
}

// BookRequests lists active requests covering a book.
func (controller *CatalogController) BookRequests(c *gin.Context) {
	id, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	rows, err := controller.requests.RequestsForBook(id)
	if err != nil {
		respondInternalError(c, err, "list book requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": rows})
}

// readCover reads the optional cover_image multipart file, enforcing the
// size limit. Returns nil bytes when the form carries no cover.
func (controller *CatalogController) readCover(c *gin.Context) ([]byte, bool) {
	file, err := c.FormFile("cover_image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, true
	}
	if err != nil {
		respondBadRequest(c, "invalid cover image")
		return nil, false
	}
	if file.Size > controller.maxCoverSize {
		respondBadRequest(c, "cover image exceeds maximum size")
		return nil, false
	}

	cover, err := readMultipartFile(file)
	if err != nil {
		respondInternalError(c, err, "read cover image")
		return nil, false
	}
	return cover, true
}

func readMultipartFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

// parseCategoryIDs reads category_ids form values, accepting both repeated
// fields and a single comma-separated value.
func parseCategoryIDs(c *gin.Context) ([]uint, bool) {
	values := c.PostFormArray("category_ids")
	ids := make([]uint, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 32)
			if err != nil {
				respondBadRequest(c, "invalid category_ids")
				return nil, false
			}
			ids = append(ids, uint(id))
		}
	}
	return ids, true
}

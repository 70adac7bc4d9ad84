package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/traxys/bouquineur/internal/covers"
	"github.com/traxys/bouquineur/internal/database/books"
)

// BooksController serves the shelf index, book detail and delete endpoints.
type BooksController struct {
	books  *books.Repository
	covers *covers.Store
	tasks  TaskEnqueuer
}

func NewBooksController(repo *books.Repository, coverStore *covers.Store, tasks TaskEnqueuer) *BooksController {
	return &BooksController{
		books:  repo,
		covers: coverStore,
		tasks:  tasks,
	}
}

// BooksPage renders the owner's shelf as cards.
func (ctrl *BooksController) BooksPage(c *gin.Context) {
	userID := currentUserID(c)

	list, err := ctrl.books.List(userID)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading books: %s", err.Error())
		return
	}

	c.HTML(http.StatusOK, "books", gin.H{
		"Auth":       GetAuthTemplateData(c),
		"Active":     "books",
		"Books":      list,
		"TotalBooks": len(list),
		"CSRFToken":  csrfToken(c),
	})
}

// BookPage renders a single book with its series, authors and tags.
func (ctrl *BooksController) BookPage(c *gin.Context) {
	userID := currentUserID(c)
	id := c.Param("id")

	book, err := ctrl.books.GetByID(id, userID)
	if errors.Is(err, books.ErrBookNotFound) {
		c.String(http.StatusNotFound, "Book not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading book")
		return
	}

	placement, err := ctrl.books.Placement(id)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading series")
		return
	}

	c.HTML(http.StatusOK, "book", gin.H{
		"Auth":      GetAuthTemplateData(c),
		"Active":    "books",
		"Book":      book,
		"Placement": placement,
		"HasCover":  ctrl.covers.Path(userID, id) != "",
		"CSRFToken": csrfToken(c),
	})
}

// DeleteBook removes a book and its cover image.
func (ctrl *BooksController) DeleteBook(c *gin.Context) {
	userID := currentUserID(c)
	id := c.Param("id")

	err := ctrl.books.Delete(id, userID)
	if errors.Is(err, books.ErrBookNotFound) {
		c.String(http.StatusNotFound, "Book not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error deleting book")
		return
	}

	_ = ctrl.covers.Delete(userID, id)

	// Authors and tags the book referenced may now be orphaned
	if ctrl.tasks != nil {
		_ = ctrl.tasks.EnqueueCleanupOrphans()
	}

	c.Redirect(http.StatusFound, "/")
}

// EnrichBook queues a metadata refresh that fills missing fields.
func (ctrl *BooksController) EnrichBook(c *gin.Context) {
	userID := currentUserID(c)
	id := c.Param("id")

	if _, err := ctrl.books.GetByID(id, userID); err != nil {
		c.String(http.StatusNotFound, "Book not found")
		return
	}

	if ctrl.tasks == nil {
		c.String(http.StatusServiceUnavailable, "Background tasks are disabled")
		return
	}
	if err := ctrl.tasks.EnqueueEnrichBook(id); err != nil {
		c.String(http.StatusInternalServerError, "Could not queue enrichment")
		return
	}

	c.Redirect(http.StatusFound, "/book/"+id)
}

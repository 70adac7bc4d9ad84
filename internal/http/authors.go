package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/traxys/bouquineur/internal/database/authors"
)

// AuthorsController serves per-author book listings.
type AuthorsController struct {
	authors *authors.Repository
}

func NewAuthorsController(repo *authors.Repository) *AuthorsController {
	return &AuthorsController{authors: repo}
}

// AuthorPage lists the current user's books by one author. Authors are
// global rows, so the page 404s when the user owns none of their books;
// ids stay unguessable beyond what the user already sees.
func (ctrl *AuthorsController) AuthorPage(c *gin.Context) {
	userID := currentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid author ID")
		return
	}

	author, err := ctrl.authors.GetByID(uint(id))
	if errors.Is(err, authors.ErrAuthorNotFound) {
		c.String(http.StatusNotFound, "Author not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading author")
		return
	}

	books, err := ctrl.authors.BooksByAuthor(uint(id), userID)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading books")
		return
	}
	if len(books) == 0 {
		c.String(http.StatusNotFound, "Author not found")
		return
	}

	c.HTML(http.StatusOK, "author", gin.H{
		"Auth":   GetAuthTemplateData(c),
		"Active": "books",
		"Author": author,
		"Books":  books,
	})
}

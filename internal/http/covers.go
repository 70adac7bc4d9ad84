package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/traxys/bouquineur/internal/covers"
	"github.com/traxys/bouquineur/internal/database/books"
)

// CoversController serves stored cover images.
type CoversController struct {
	books  *books.Repository
	covers *covers.Store
}

func NewCoversController(bookRepo *books.Repository, coverStore *covers.Store) *CoversController {
	return &CoversController{
		books:  bookRepo,
		covers: coverStore,
	}
}

// CoverImage serves the cover of one of the user's books. Scoping the
// lookup to the session user keeps covers private even though files are
// stored under predictable paths.
func (ctrl *CoversController) CoverImage(c *gin.Context) {
	userID := currentUserID(c)
	id := c.Param("id")

	_, err := ctrl.books.GetByID(id, userID)
	if errors.Is(err, books.ErrBookNotFound) {
		c.String(http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading book")
		return
	}

	path := ctrl.covers.Path(userID, id)
	if path == "" {
		c.Redirect(http.StatusFound, "/static/no_cover.svg")
		return
	}
	c.Header("Cache-Control", "private, max-age=86400")
	c.File(path)
}

package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/traxys/bouquineur/internal/database/series"
	"github.com/traxys/bouquineur/internal/database/wishes"
	"github.com/traxys/bouquineur/internal/entities"
)

// WishesController serves the wishlist pages.
type WishesController struct {
	wishes *wishes.Repository
	series *series.Repository
}

func NewWishesController(wishRepo *wishes.Repository, seriesRepo *series.Repository) *WishesController {
	return &WishesController{
		wishes: wishRepo,
		series: seriesRepo,
	}
}

// WishlistPage lists the user's wishes.
func (ctrl *WishesController) WishlistPage(c *gin.Context) {
	userID := currentUserID(c)

	list, err := ctrl.wishes.List(userID)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading wishlist")
		return
	}

	c.HTML(http.StatusOK, "wishlist", gin.H{
		"Auth":      GetAuthTemplateData(c),
		"Active":    "wishlist",
		"Wishes":    list,
		"CSRFToken": csrfToken(c),
	})
}

// CreateWish handles the wishlist form submission.
func (ctrl *WishesController) CreateWish(c *gin.Context) {
	userID := currentUserID(c)

	name := c.PostForm("name")
	if name == "" {
		c.String(http.StatusBadRequest, "Name is required")
		return
	}

	var slot *wishes.SeriesSlot
	if seriesName := c.PostForm("series"); seriesName != "" {
		number, err := parseOptionalInt(c.PostForm("seriesnumber"))
		if err != nil || number == nil {
			c.String(http.StatusBadRequest, "A series requires a volume number")
			return
		}
		s, err := ctrl.series.GetOrCreate(userID, seriesName)
		if err != nil {
			c.String(http.StatusInternalServerError, "Could not resolve series")
			return
		}
		slot = &wishes.SeriesSlot{SeriesID: s.ID, Number: *number}
	}

	wish := &entities.Wish{
		OwnerID: userID,
		Name:    name,
	}

	err := ctrl.wishes.Create(wish, splitList(c.PostForm("authors")), slot)
	if errors.Is(err, wishes.ErrSeriesSlotTaken) {
		c.String(http.StatusConflict, "That series position is already wished for")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error saving wish")
		return
	}

	c.Redirect(http.StatusFound, "/wishlist")
}

// DeleteWish removes a wish.
func (ctrl *WishesController) DeleteWish(c *gin.Context) {
	userID := currentUserID(c)
	id := c.Param("id")

	err := ctrl.wishes.Delete(id, userID)
	if errors.Is(err, wishes.ErrWishNotFound) {
		c.String(http.StatusNotFound, "Wish not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error deleting wish")
		return
	}

	c.Redirect(http.StatusFound, "/wishlist")
}

// AcquireWish converts a wish into the add flow: the wish is removed and
// the user lands on the add page with the title and authors prefilled.
func (ctrl *WishesController) AcquireWish(c *gin.Context) {
	userID := currentUserID(c)
	id := c.Param("id")

	wish, err := ctrl.wishes.GetByID(id, userID)
	if errors.Is(err, wishes.ErrWishNotFound) {
		c.String(http.StatusNotFound, "Wish not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading wish")
		return
	}

	if err := ctrl.wishes.Delete(id, userID); err != nil {
		c.String(http.StatusInternalServerError, "Error removing wish")
		return
	}

	authorNames := make([]string, 0, len(wish.Authors))
	for _, a := range wish.Authors {
		authorNames = append(authorNames, a.Name)
	}

	params := url.Values{}
	params.Set("title", wish.Name)
	if len(authorNames) > 0 {
		params.Set("authors", joinList(authorNames))
	}
	c.Redirect(http.StatusFound, "/add?"+params.Encode())
}

package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/traxys/bouquineur/internal/database/books"
	"github.com/traxys/bouquineur/internal/database/series"
	"github.com/traxys/bouquineur/internal/database/users"
	"github.com/traxys/bouquineur/internal/entities"
)

// ReportsController serves the unread and ongoing-series pages.
type ReportsController struct {
	books  *books.Repository
	series *series.Repository
	users  *users.Repository
}

func NewReportsController(bookRepo *books.Repository, seriesRepo *series.Repository, userRepo *users.Repository) *ReportsController {
	return &ReportsController{
		books:  bookRepo,
		series: seriesRepo,
		users:  userRepo,
	}
}

// seriesGroup is a group of unread books sharing a series (or none).
type seriesGroup struct {
	Name  string
	Books []entities.Book
}

// UnreadPage lists unread books grouped by series.
func (ctrl *ReportsController) UnreadPage(c *gin.Context) {
	userID := currentUserID(c)

	unread, err := ctrl.books.ListUnread(userID)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading books")
		return
	}

	placements, err := ctrl.books.Placements(userID)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading series")
		return
	}

	var noSeries []entities.Book
	grouped := map[string]*seriesGroup{}
	var order []string

	for _, book := range unread {
		placement, ok := placements[book.ID]
		if !ok {
			noSeries = append(noSeries, book)
			continue
		}
		group, ok := grouped[placement.SeriesID]
		if !ok {
			group = &seriesGroup{Name: placement.SeriesName}
			grouped[placement.SeriesID] = group
			order = append(order, placement.SeriesID)
		}
		group.Books = append(group.Books, book)
	}

	groups := make([]seriesGroup, 0, len(order))
	for _, id := range order {
		groups = append(groups, *grouped[id])
	}

	c.HTML(http.StatusOK, "unread", gin.H{
		"Auth":     GetAuthTemplateData(c),
		"Active":   "unread",
		"NoSeries": noSeries,
		"Groups":   groups,
	})
}

// missingReport describes an incomplete series on the ongoing page.
type missingReport struct {
	Series  entities.Series
	Missing []int
}

// OngoingPage reports ongoing series: which planned volumes are missing,
// and which series are fully owned.
func (ctrl *ReportsController) OngoingPage(c *gin.Context) {
	userID := currentUserID(c)
	ctrl.renderOngoing(c, userID, "ongoing")
}

// PublicOngoingPage is the unauthenticated variant, available only when
// the owner opted in via their profile.
func (ctrl *ReportsController) PublicOngoingPage(c *gin.Context) {
	ownerID := c.Param("user")

	owner, err := ctrl.users.GetByID(ownerID)
	if errors.Is(err, users.ErrUserNotFound) {
		c.String(http.StatusNotFound, "Not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading user")
		return
	}
	if !owner.PublicOngoing {
		c.String(http.StatusNotFound, "Not found")
		return
	}

	ctrl.renderOngoing(c, ownerID, "ongoing-public")
}

func (ctrl *ReportsController) renderOngoing(c *gin.Context, userID, template string) {
	stats, err := ctrl.series.StatsFor(userID)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading series")
		return
	}

	var missing []missingReport
	var allOwned []entities.Series

	for _, stat := range stats {
		gaps := series.MissingVolumes(stat)
		switch {
		case len(gaps) > 0:
			missing = append(missing, missingReport{Series: stat.Series, Missing: gaps})
		case stat.Series.Ongoing:
			allOwned = append(allOwned, stat.Series)
		}
	}

	c.HTML(http.StatusOK, template, gin.H{
		"Auth":     GetAuthTemplateData(c),
		"Active":   "ongoing",
		"Missing":  missing,
		"AllOwned": allOwned,
	})
}

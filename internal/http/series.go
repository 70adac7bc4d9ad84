package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/traxys/bouquineur/internal/database/series"
)

// SeriesController serves series detail and edit pages.
type SeriesController struct {
	series *series.Repository
}

func NewSeriesController(repo *series.Repository) *SeriesController {
	return &SeriesController{series: repo}
}

// SeriesPage lists the series volumes in position order.
func (ctrl *SeriesController) SeriesPage(c *gin.Context) {
	userID := currentUserID(c)
	id := c.Param("id")

	s, err := ctrl.series.GetByID(id, userID)
	if errors.Is(err, series.ErrSeriesNotFound) {
		c.String(http.StatusNotFound, "Series not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading series")
		return
	}

	volumes, err := ctrl.series.Volumes(id, userID)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading volumes")
		return
	}

	c.HTML(http.StatusOK, "series", gin.H{
		"Auth":    GetAuthTemplateData(c),
		"Active":  "series",
		"Series":  s,
		"Volumes": volumes,
	})
}

// SeriesListPage lists all of the user's series.
func (ctrl *SeriesController) SeriesListPage(c *gin.Context) {
	userID := currentUserID(c)

	list, err := ctrl.series.List(userID)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading series")
		return
	}

	c.HTML(http.StatusOK, "series-list", gin.H{
		"Auth":   GetAuthTemplateData(c),
		"Active": "series",
		"Series": list,
	})
}

// EditPage renders the series edit form.
func (ctrl *SeriesController) EditPage(c *gin.Context) {
	userID := currentUserID(c)
	id := c.Param("id")

	s, err := ctrl.series.GetByID(id, userID)
	if errors.Is(err, series.ErrSeriesNotFound) {
		c.String(http.StatusNotFound, "Series not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading series")
		return
	}

	c.HTML(http.StatusOK, "series-edit", gin.H{
		"Auth":      GetAuthTemplateData(c),
		"Active":    "series",
		"Series":    s,
		"CSRFToken": csrfToken(c),
	})
}

// Edit handles the series edit form submission.
func (ctrl *SeriesController) Edit(c *gin.Context) {
	userID := currentUserID(c)
	id := c.Param("id")

	s, err := ctrl.series.GetByID(id, userID)
	if errors.Is(err, series.ErrSeriesNotFound) {
		c.String(http.StatusNotFound, "Series not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading series")
		return
	}

	name := c.PostForm("name")
	if name == "" {
		c.String(http.StatusBadRequest, "Name is required")
		return
	}

	totalCount, err := parseOptionalInt(c.PostForm("totalcount"))
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid total count")
		return
	}

	s.Name = name
	s.Ongoing = c.PostForm("ongoing") != ""
	s.TotalCount = totalCount

	if err := ctrl.series.Update(s); err != nil {
		c.String(http.StatusInternalServerError, "Error saving series")
		return
	}

	c.Redirect(http.StatusFound, "/series/"+id)
}

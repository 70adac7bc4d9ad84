package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/traxys/bouquineur/internal/database/users"
)

// ProfileController serves the profile page and its edit form.
type ProfileController struct {
	users *users.Repository
}

func NewProfileController(repo *users.Repository) *ProfileController {
	return &ProfileController{users: repo}
}

func (ctrl *ProfileController) ProfilePage(c *gin.Context) {
	userID := currentUserID(c)

	user, err := ctrl.users.GetByID(userID)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading profile")
		return
	}

	c.HTML(http.StatusOK, "profile", gin.H{
		"Auth":      GetAuthTemplateData(c),
		"Active":    "profile",
		"User":      user,
		"PublicURL": "/public/" + user.ID + "/ongoing",
		"CSRFToken": csrfToken(c),
	})
}

func (ctrl *ProfileController) UpdateProfile(c *gin.Context) {
	userID := currentUserID(c)

	publicOngoing := c.PostForm("public_ongoing") != ""
	if err := ctrl.users.UpdateProfile(userID, publicOngoing); err != nil {
		c.String(http.StatusInternalServerError, "Error saving profile")
		return
	}

	c.Redirect(http.StatusFound, "/profile")
}

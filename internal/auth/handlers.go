package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Controller serves the login, logout and first-run setup pages.
type Controller struct {
	service        *Service
	sessionManager *SessionManager
}

// NewController creates the auth page controller.
func NewController(service *Service, sessionManager *SessionManager) *Controller {
	return &Controller{
		service:        service,
		sessionManager: sessionManager,
	}
}

// RegisterRoutes attaches the auth routes to the router.
func (ctrl *Controller) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", ctrl.LoginPage)
	router.POST("/login", ctrl.Login)
	router.POST("/logout", ctrl.Logout)
	router.GET("/setup", ctrl.SetupPage)
	router.POST("/setup", ctrl.Setup)
}

func (ctrl *Controller) LoginPage(c *gin.Context) {
	hasUsers, err := ctrl.service.HasUsers()
	if err == nil && !hasUsers {
		c.Redirect(http.StatusFound, "/setup")
		return
	}

	c.HTML(http.StatusOK, "login", gin.H{
		"CSRFToken": c.GetString(ContextKeyCSRFToken),
		"Next":      sanitizeNext(c.Query("next")),
	})
}

func (ctrl *Controller) Login(c *gin.Context) {
	name := c.PostForm("username")
	password := c.PostForm("password")

	user, err := ctrl.service.Authenticate(name, password)
	if err != nil {
		c.HTML(http.StatusUnauthorized, "login", gin.H{
			"CSRFToken": c.GetString(ContextKeyCSRFToken),
			"Error":     "Invalid username or password",
			"Next":      sanitizeNext(c.PostForm("next")),
		})
		return
	}

	if err := ctrl.sessionManager.CreateSession(c.Request, user); err != nil {
		c.String(http.StatusInternalServerError, "Could not create session")
		return
	}

	next := sanitizeNext(c.PostForm("next"))
	if next == "" {
		next = "/"
	}
	c.Redirect(http.StatusFound, next)
}

func (ctrl *Controller) Logout(c *gin.Context) {
	if err := ctrl.sessionManager.DestroySession(c.Request); err != nil {
		c.String(http.StatusInternalServerError, "Could not destroy session")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

// SetupPage serves the first-user creation form. It is only available
// while no account exists.
func (ctrl *Controller) SetupPage(c *gin.Context) {
	hasUsers, err := ctrl.service.HasUsers()
	if err != nil {
		c.String(http.StatusInternalServerError, "Database error")
		return
	}
	if hasUsers {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	c.HTML(http.StatusOK, "setup", gin.H{
		"CSRFToken": c.GetString(ContextKeyCSRFToken),
	})
}

func (ctrl *Controller) Setup(c *gin.Context) {
	hasUsers, err := ctrl.service.HasUsers()
	if err != nil {
		c.String(http.StatusInternalServerError, "Database error")
		return
	}
	if hasUsers {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	name := c.PostForm("username")
	password := c.PostForm("password")

	user, err := ctrl.service.CreateUser(name, password)
	if err != nil {
		c.HTML(http.StatusBadRequest, "setup", gin.H{
			"CSRFToken": c.GetString(ContextKeyCSRFToken),
			"Error":     err.Error(),
		})
		return
	}

	if err := ctrl.sessionManager.CreateSession(c.Request, user); err != nil {
		c.String(http.StatusInternalServerError, "Could not create session")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// sanitizeNext only allows same-site relative redirect targets.
func sanitizeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}

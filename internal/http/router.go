package http

import (
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/traxys/bouquineur/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by
	// CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		// No auth - inject default user ID
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, auth.DefaultUserID)
			c.Next()
		})
	}

	// Inject auth data for templates
	router.Use(AuthContextMiddleware(cfg.AuthConfig.Mode))

	// Pointer fields are nullable columns; templates guard with if and
	// print through these.
	funcMap := template.FuncMap{
		"deref": func(p *int) int {
			if p == nil {
				return 0
			}
			return *p
		},
		"str": func(p *string) string {
			if p == nil {
				return ""
			}
			return *p
		},
	}

	tmpl := template.Must(template.New("").Funcs(funcMap).ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)

	router.Static("/static", cfg.StaticPath)

	// Register auth routes if auth is enabled
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() {
		authController := auth.NewController(cfg.AuthService, cfg.SessionManager)
		authController.RegisterRoutes(router)
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.Books, cfg.CoverStore, cfg.TaskClient)
	addController := NewAddController(cfg.Books, cfg.Series, cfg.CoverStore, cfg.Providers)
	coversController := NewCoversController(cfg.Books, cfg.CoverStore)
	authorsController := NewAuthorsController(cfg.Authors)
	tagsController := NewTagsController(cfg.Tags)
	seriesController := NewSeriesController(cfg.Series)
	reportsController := NewReportsController(cfg.Books, cfg.Series, cfg.Users)
	wishesController := NewWishesController(cfg.Wishes, cfg.Series)
	profileController := NewProfileController(cfg.Users)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Library pages
	router.GET("/", booksController.BooksPage)
	router.GET("/book/:id", booksController.BookPage)
	router.POST("/book/:id/delete", booksController.DeleteBook)
	router.POST("/book/:id/enrich", booksController.EnrichBook)
	router.GET("/book/:id/edit", addController.EditPage)
	router.POST("/book/:id/edit", addController.UpdateBook)
	router.GET("/covers/:id", coversController.CoverImage)

	// Add flow
	router.GET("/add", addController.AddPage)
	router.POST("/add", addController.CreateBook)

	// Browse pages
	router.GET("/author/:id", authorsController.AuthorPage)
	router.GET("/series", seriesController.SeriesListPage)
	router.GET("/series/:id", seriesController.SeriesPage)
	router.GET("/series/:id/edit", seriesController.EditPage)
	router.POST("/series/:id/edit", seriesController.Edit)

	// Reports
	router.GET("/unread", reportsController.UnreadPage)
	router.GET("/ongoing", reportsController.OngoingPage)
	router.GET("/public/:user/ongoing", reportsController.PublicOngoingPage)

	// Wishlist
	router.GET("/wishlist", wishesController.WishlistPage)
	router.POST("/wishlist", wishesController.CreateWish)
	router.POST("/wish/:id/delete", wishesController.DeleteWish)
	router.POST("/wish/:id/acquire", wishesController.AcquireWish)

	// Profile
	router.GET("/profile", profileController.ProfilePage)
	router.POST("/profile", profileController.UpdateProfile)

	// Tag suggestions for the add and edit forms
	router.GET("/api/tags/suggest", tagsController.TagSuggest)

	return router
}

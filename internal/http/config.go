package http

import (
	"github.com/traxys/bouquineur/internal/auth"
	"github.com/traxys/bouquineur/internal/config"
	"github.com/traxys/bouquineur/internal/covers"
	"github.com/traxys/bouquineur/internal/database"
	"github.com/traxys/bouquineur/internal/database/authors"
	"github.com/traxys/bouquineur/internal/database/books"
	"github.com/traxys/bouquineur/internal/database/series"
	"github.com/traxys/bouquineur/internal/database/tags"
	"github.com/traxys/bouquineur/internal/database/users"
	"github.com/traxys/bouquineur/internal/database/wishes"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces the long parameter list
// in NewRouter for better maintainability.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Books    *books.Repository
	Authors  *authors.Repository
	Tags     *tags.Repository
	Series   *series.Repository
	Wishes   *wishes.Repository
	Users    *users.Repository

	// Cover storage
	CoverStore *covers.Store

	// Metadata lookup
	Providers ProviderSource

	// Task queue client (optional)
	TaskClient TaskEnqueuer

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthConfig     config.Auth
	CSRFSecret     []byte
	SecureCookies  bool

	// UI paths
	TemplatesPath string
	StaticPath    string

	// Application info
	Version string
}

package http

import (
	"context"
	"html/template"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/traxys/bouquineur/internal/auth"
	"github.com/traxys/bouquineur/internal/covers"
	"github.com/traxys/bouquineur/internal/entities"
	"github.com/traxys/bouquineur/internal/metadata"
)

func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()
	dbPath := "./test_http_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Author{},
		&entities.Tag{},
		&entities.Book{},
		&entities.Series{},
		&entities.BookSeries{},
		&entities.Wish{},
		&entities.WishSeries{},
	)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

// newTestEngine builds a gin engine with the real templates loaded and every
// request attributed to the given user.
func newTestEngine(t *testing.T, userID string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()

	funcMap := template.FuncMap{
		"deref": func(v *int) int {
			if v == nil {
				return 0
			}
			return *v
		},
		"str": func(v *string) string {
			if v == nil {
				return ""
			}
			return *v
		},
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseGlob("../../templates/*.html")
	require.NoError(t, err)
	router.SetHTMLTemplate(tmpl)

	router.Use(func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, userID)
		c.Next()
	})

	return router
}

func newTestCoverStore(t *testing.T) *covers.Store {
	t.Helper()
	store, err := covers.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func createTestUser(t *testing.T, db *gorm.DB, name string) *entities.User {
	t.Helper()
	user := &entities.User{Name: name, PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// stubProvider serves canned lookup results.
type stubProvider struct {
	name    string
	details *metadata.BookDetails
	err     error
}

func (p *stubProvider) FetchByISBN(ctx context.Context, isbn string) (*metadata.BookDetails, error) {
	return p.details, p.err
}

func (p *stubProvider) Name() string { return p.name }

// stubProviderSource implements ProviderSource over a single provider.
type stubProviderSource struct {
	provider *stubProvider
}

func (s *stubProviderSource) Get(name string) (metadata.Provider, error) {
	return s.provider, nil
}

func (s *stubProviderSource) Names() []string {
	if s.provider == nil {
		return nil
	}
	return []string{s.provider.name}
}

func (s *stubProviderSource) Default() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.name
}

func (s *stubProviderSource) Empty() bool { return s.provider == nil }

// stubEnqueuer records submitted background work.
type stubEnqueuer struct {
	enriched []string
	cleanups int
}

func (s *stubEnqueuer) EnqueueEnrichBook(bookID string) error {
	s.enriched = append(s.enriched, bookID)
	return nil
}

func (s *stubEnqueuer) EnqueueCleanupOrphans() error {
	s.cleanups++
	return nil
}

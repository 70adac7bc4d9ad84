package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/traxys/bouquineur/internal/database/books"
	"github.com/traxys/bouquineur/internal/database/series"
	"github.com/traxys/bouquineur/internal/entities"
	"github.com/traxys/bouquineur/internal/metadata"
)

func setupAddTest(t *testing.T, provider *stubProvider) (*gin.Engine, *gorm.DB, *books.Repository, string, func()) {
	t.Helper()

	db, cleanup := setupTestDB(t)
	user := createTestUser(t, db, "alice")

	bookRepo := books.NewRepository(db)
	seriesRepo := series.NewRepository(db)
	ctrl := NewAddController(bookRepo, seriesRepo, newTestCoverStore(t), &stubProviderSource{provider: provider})

	router := newTestEngine(t, user.ID)
	router.GET("/add", ctrl.AddPage)
	router.POST("/add", ctrl.CreateBook)

	return router, db, bookRepo, user.ID, cleanup
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAddPage_NoLookup(t *testing.T) {
	provider := &stubProvider{name: "openlibrary"}
	router, _, _, _, cleanup := setupAddTest(t, provider)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/add", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Load from ISBN")
	assert.NotContains(t, w.Body.String(), "alert-warning")
}

func TestAddPage_LookupPrefillsForm(t *testing.T) {
	provider := &stubProvider{
		name: "openlibrary",
		details: &metadata.BookDetails{
			ISBN:    "9780140449136",
			Title:   "The Odyssey",
			Authors: []string{"Homer"},
		},
	}
	router, _, _, _, cleanup := setupAddTest(t, provider)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/add?isbn=9780140449136&provider=openlibrary", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "9780140449136")
	assert.Contains(t, body, "The Odyssey")
	assert.Contains(t, body, "Homer")
}

func TestAddPage_LookupMiss(t *testing.T) {
	provider := &stubProvider{name: "openlibrary", err: metadata.ErrNotFound}
	router, _, _, _, cleanup := setupAddTest(t, provider)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/add?isbn=9780000000000", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "The requested ISBN was not found")
	// The typed ISBN is kept so the book can be added manually
	assert.Contains(t, body, "9780000000000")
}

func TestAddPage_LookupFailure(t *testing.T) {
	provider := &stubProvider{name: "openlibrary", err: errors.New("provider unreachable")}
	router, _, _, _, cleanup := setupAddTest(t, provider)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/add?isbn=9780140449136", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lookup failed")
}

func TestAddPage_AlreadyRegistered(t *testing.T) {
	provider := &stubProvider{name: "openlibrary"}
	router, _, bookRepo, userID, cleanup := setupAddTest(t, provider)
	defer cleanup()

	book := &entities.Book{OwnerID: userID, ISBN: "9780140449136", Title: "The Odyssey"}
	require.NoError(t, bookRepo.Create(book, nil, nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/add?isbn=978-0-14-044913-6", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already in your library")
}

func TestCreateBook(t *testing.T) {
	provider := &stubProvider{name: "openlibrary"}
	router, _, bookRepo, userID, cleanup := setupAddTest(t, provider)
	defer cleanup()

	w := postForm(router, "/add", url.Values{
		"isbn":    {"9780140449136"},
		"title":   {"The Odyssey"},
		"authors": {"Homer"},
		"tags":    {"classics, epic"},
		"owned":   {"on"},
	})

	require.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "/book/"))

	id := strings.TrimPrefix(location, "/book/")
	book, err := bookRepo.GetByID(id, userID)
	require.NoError(t, err)
	assert.Equal(t, "The Odyssey", book.Title)
	assert.True(t, book.Owned)
	assert.Len(t, book.Tags, 2)
}

func TestCreateBook_WithSeries(t *testing.T) {
	provider := &stubProvider{name: "openlibrary"}
	router, db, bookRepo, userID, cleanup := setupAddTest(t, provider)
	defer cleanup()

	w := postForm(router, "/add", url.Values{
		"isbn":         {"9780552166591"},
		"title":        {"The Colour of Magic"},
		"series":       {"Discworld"},
		"seriesnumber": {"1"},
	})
	require.Equal(t, http.StatusFound, w.Code)

	// The series row was created on the fly
	s, err := series.NewRepository(db).GetOrCreate(userID, "Discworld")
	require.NoError(t, err)

	id := strings.TrimPrefix(w.Header().Get("Location"), "/book/")
	placement, err := bookRepo.Placement(id)
	require.NoError(t, err)
	require.NotNil(t, placement)
	assert.Equal(t, s.ID, placement.SeriesID)
	assert.Equal(t, 1, placement.Number)
}

func TestCreateBook_Duplicate(t *testing.T) {
	provider := &stubProvider{name: "openlibrary"}
	router, _, bookRepo, userID, cleanup := setupAddTest(t, provider)
	defer cleanup()

	book := &entities.Book{OwnerID: userID, ISBN: "9780140449136", Title: "The Odyssey"}
	require.NoError(t, bookRepo.Create(book, nil, nil, nil))

	w := postForm(router, "/add", url.Values{
		"isbn":  {"9780140449136"},
		"title": {"The Odyssey again"},
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already in your library")
}

func TestCreateBook_MissingFields(t *testing.T) {
	provider := &stubProvider{name: "openlibrary"}
	router, _, _, _, cleanup := setupAddTest(t, provider)
	defer cleanup()

	t.Run("no title", func(t *testing.T) {
		w := postForm(router, "/add", url.Values{"isbn": {"9780140449136"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no isbn", func(t *testing.T) {
		w := postForm(router, "/add", url.Values{"title": {"The Odyssey"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("series without number", func(t *testing.T) {
		w := postForm(router, "/add", url.Values{
			"isbn":   {"9780140449136"},
			"title":  {"The Odyssey"},
			"series": {"Epics"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

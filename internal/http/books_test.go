package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traxys/bouquineur/internal/database/books"
	"github.com/traxys/bouquineur/internal/entities"
)

func setupBooksTest(t *testing.T) (*gin.Engine, *books.Repository, *stubEnqueuer, string, func()) {
	t.Helper()

	db, cleanup := setupTestDB(t)
	user := createTestUser(t, db, "alice")

	bookRepo := books.NewRepository(db)
	enqueuer := &stubEnqueuer{}
	ctrl := NewBooksController(bookRepo, newTestCoverStore(t), enqueuer)

	router := newTestEngine(t, user.ID)
	router.GET("/", ctrl.BooksPage)
	router.GET("/book/:id", ctrl.BookPage)
	router.POST("/book/:id/delete", ctrl.DeleteBook)
	router.POST("/book/:id/enrich", ctrl.EnrichBook)

	return router, bookRepo, enqueuer, user.ID, cleanup
}

func TestBooksPage(t *testing.T) {
	router, bookRepo, _, userID, cleanup := setupBooksTest(t)
	defer cleanup()

	book := &entities.Book{OwnerID: userID, ISBN: "9780140449136", Title: "The Odyssey"}
	require.NoError(t, bookRepo.Create(book, []string{"Homer"}, nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "The Odyssey")
	assert.Contains(t, w.Body.String(), "Homer")
}

func TestBookPage(t *testing.T) {
	router, bookRepo, _, userID, cleanup := setupBooksTest(t)
	defer cleanup()

	book := &entities.Book{OwnerID: userID, ISBN: "9780140449136", Title: "The Odyssey"}
	require.NoError(t, bookRepo.Create(book, []string{"Homer"}, []string{"classics"}, nil))

	req := httptest.NewRequest(http.MethodGet, "/book/"+book.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "The Odyssey")
	assert.Contains(t, body, "9780140449136")
	assert.Contains(t, body, "classics")
}

func TestBookPage_NotFound(t *testing.T) {
	router, _, _, _, cleanup := setupBooksTest(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/book/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookPage_OtherOwnersBook(t *testing.T) {
	router, bookRepo, _, _, cleanup := setupBooksTest(t)
	defer cleanup()

	// A book the requesting user does not own
	other := &entities.Book{OwnerID: "someone-else", ISBN: "9780140449136", Title: "The Odyssey"}
	require.NoError(t, bookRepo.Create(other, nil, nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/book/"+other.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteBook(t *testing.T) {
	router, bookRepo, enqueuer, userID, cleanup := setupBooksTest(t)
	defer cleanup()

	book := &entities.Book{OwnerID: userID, ISBN: "9780140449136", Title: "The Odyssey"}
	require.NoError(t, bookRepo.Create(book, []string{"Homer"}, nil, nil))

	w := postForm(router, "/book/"+book.ID+"/delete", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	_, err := bookRepo.GetByID(book.ID, userID)
	assert.ErrorIs(t, err, books.ErrBookNotFound)

	// Orphan cleanup was queued for the now unreferenced author
	assert.Equal(t, 1, enqueuer.cleanups)
}

func TestEnrichBook(t *testing.T) {
	router, bookRepo, enqueuer, userID, cleanup := setupBooksTest(t)
	defer cleanup()

	book := &entities.Book{OwnerID: userID, ISBN: "9780140449136", Title: "The Odyssey"}
	require.NoError(t, bookRepo.Create(book, nil, nil, nil))

	w := postForm(router, "/book/"+book.ID+"/enrich", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/book/"+book.ID, w.Header().Get("Location"))
	assert.Equal(t, []string{book.ID}, enqueuer.enriched)
}

func TestEnrichBook_TasksDisabled(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	user := createTestUser(t, db, "alice")

	bookRepo := books.NewRepository(db)
	ctrl := NewBooksController(bookRepo, newTestCoverStore(t), nil)

	book := &entities.Book{OwnerID: user.ID, ISBN: "9780140449136", Title: "The Odyssey"}
	require.NoError(t, bookRepo.Create(book, nil, nil, nil))

	router := newTestEngine(t, user.ID)
	router.POST("/book/:id/enrich", ctrl.EnrichBook)

	w := postForm(router, "/book/"+book.ID+"/enrich", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traxys/bouquineur/internal/database/series"
	"github.com/traxys/bouquineur/internal/database/wishes"
	"github.com/traxys/bouquineur/internal/entities"
)

func setupWishesTest(t *testing.T) (*gin.Engine, *wishes.Repository, string, func()) {
	t.Helper()

	db, cleanup := setupTestDB(t)
	user := createTestUser(t, db, "alice")

	wishRepo := wishes.NewRepository(db)
	ctrl := NewWishesController(wishRepo, series.NewRepository(db))

	router := newTestEngine(t, user.ID)
	router.GET("/wishlist", ctrl.WishlistPage)
	router.POST("/wishlist", ctrl.CreateWish)
	router.POST("/wish/:id/delete", ctrl.DeleteWish)
	router.POST("/wish/:id/acquire", ctrl.AcquireWish)

	return router, wishRepo, user.ID, cleanup
}

func TestWishlistPage(t *testing.T) {
	router, wishRepo, userID, cleanup := setupWishesTest(t)
	defer cleanup()

	wish := &entities.Wish{OwnerID: userID, Name: "Small Gods"}
	require.NoError(t, wishRepo.Create(wish, []string{"Terry Pratchett"}, nil))

	req := httptest.NewRequest(http.MethodGet, "/wishlist", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Small Gods")
	assert.Contains(t, w.Body.String(), "Terry Pratchett")
}

func TestCreateWish(t *testing.T) {
	router, wishRepo, userID, cleanup := setupWishesTest(t)
	defer cleanup()

	w := postForm(router, "/wishlist", url.Values{
		"name":    {"Small Gods"},
		"authors": {"Terry Pratchett"},
	})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/wishlist", w.Header().Get("Location"))

	list, err := wishRepo.List(userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Small Gods", list[0].Name)
}

func TestCreateWish_SlotConflict(t *testing.T) {
	router, _, _, cleanup := setupWishesTest(t)
	defer cleanup()

	first := postForm(router, "/wishlist", url.Values{
		"name":         {"Mort"},
		"series":       {"Discworld"},
		"seriesnumber": {"4"},
	})
	require.Equal(t, http.StatusFound, first.Code)

	second := postForm(router, "/wishlist", url.Values{
		"name":         {"Mort, hardcover"},
		"series":       {"Discworld"},
		"seriesnumber": {"4"},
	})
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestDeleteWish(t *testing.T) {
	router, wishRepo, userID, cleanup := setupWishesTest(t)
	defer cleanup()

	wish := &entities.Wish{OwnerID: userID, Name: "Small Gods"}
	require.NoError(t, wishRepo.Create(wish, nil, nil))

	w := postForm(router, "/wish/"+wish.ID+"/delete", nil)
	assert.Equal(t, http.StatusFound, w.Code)

	_, err := wishRepo.GetByID(wish.ID, userID)
	assert.ErrorIs(t, err, wishes.ErrWishNotFound)
}

func TestAcquireWish(t *testing.T) {
	router, wishRepo, userID, cleanup := setupWishesTest(t)
	defer cleanup()

	wish := &entities.Wish{OwnerID: userID, Name: "Small Gods"}
	require.NoError(t, wishRepo.Create(wish, []string{"Terry Pratchett"}, nil))

	w := postForm(router, "/wish/"+wish.ID+"/acquire", nil)

	require.Equal(t, http.StatusFound, w.Code)
	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/add", location.Path)
	assert.Equal(t, "Small Gods", location.Query().Get("title"))
	assert.Equal(t, "Terry Pratchett", location.Query().Get("authors"))

	// The wish is gone once acquired
	_, err = wishRepo.GetByID(wish.ID, userID)
	assert.ErrorIs(t, err, wishes.ErrWishNotFound)
}

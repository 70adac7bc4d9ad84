package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/traxys/bouquineur/internal/covers"
	"github.com/traxys/bouquineur/internal/database/books"
	"github.com/traxys/bouquineur/internal/database/series"
	"github.com/traxys/bouquineur/internal/entities"
	"github.com/traxys/bouquineur/internal/metadata"
)

const lookupTimeout = 15 * time.Second

// Lookup outcomes rendered as alerts on the add page.
const (
	searchFound         = ""
	searchNotFound      = "not_found"
	searchAlreadyExists = "already_exists"
	searchFailed        = "failed"
)

// AddController serves the add-a-book flow: the ISBN/scan entry page, the
// provider lookup triggered by its query parameters, and the create/edit
// form submissions.
type AddController struct {
	books     *books.Repository
	series    *series.Repository
	covers    *covers.Store
	providers ProviderSource
}

func NewAddController(bookRepo *books.Repository, seriesRepo *series.Repository, coverStore *covers.Store, providers ProviderSource) *AddController {
	return &AddController{
		books:     bookRepo,
		series:    seriesRepo,
		covers:    coverStore,
		providers: providers,
	}
}

// bookForm carries everything the add/edit template renders into inputs.
type bookForm struct {
	ISBN           string
	Title          string
	Authors        string // comma-separated
	Tags           string // comma-separated
	Summary        string
	Published      string // yyyy-mm-dd
	Publisher      string
	Language       string
	GoogleID       string
	GoodreadsID    string
	AmazonID       string
	LibraryThingID string
	PageCount      string
	Owned          bool
	Read           bool
	SeriesName     string
	SeriesNumber   string
	CoverArt       string // base64, carried in a hidden field
}

func formFromDetails(details *metadata.BookDetails) bookForm {
	form := bookForm{
		ISBN:           details.ISBN,
		Title:          details.Title,
		Authors:        joinList(details.Authors),
		Tags:           joinList(details.Tags),
		Summary:        details.Summary,
		Publisher:      details.Publisher,
		Language:       details.Language,
		GoogleID:       details.GoogleID,
		AmazonID:       details.AmazonID,
		LibraryThingID: details.LibraryThingID,
		CoverArt:       details.CoverArt,
		Owned:          true,
	}
	if details.Published != nil {
		form.Published = details.Published.Format("2006-01-02")
	}
	if details.PageCount > 0 {
		form.PageCount = strconv.Itoa(details.PageCount)
	}
	return form
}

// AddPage renders the add form. When the request carries an isbn query
// parameter (typed or scanned), it first checks for a duplicate and then
// asks the selected provider for metadata to prefill the form.
func (ctrl *AddController) AddPage(c *gin.Context) {
	userID := currentUserID(c)

	form := bookForm{Owned: true}
	result := searchFound
	var lookupError string

	// Prefills from the wishlist acquire flow
	form.Title = c.Query("title")
	form.Authors = c.Query("authors")

	isbn := metadata.NormalizeISBN(c.Query("isbn"))
	if isbn != "" && !ctrl.providers.Empty() {
		exists, err := ctrl.books.Exists(userID, isbn)
		if err != nil {
			c.String(http.StatusInternalServerError, "Database error")
			return
		}

		if exists {
			result = searchAlreadyExists
		} else {
			provider, err := ctrl.providers.Get(c.Query("provider"))
			if err != nil {
				c.String(http.StatusBadRequest, "Unknown metadata provider")
				return
			}

			ctx, cancel := context.WithTimeout(c.Request.Context(), lookupTimeout)
			defer cancel()

			details, err := provider.FetchByISBN(ctx, isbn)
			switch {
			case errors.Is(err, metadata.ErrNotFound):
				result = searchNotFound
				form.ISBN = isbn
			case err != nil:
				log.Printf("Metadata lookup failed for %s via %s: %v", isbn, provider.Name(), err)
				result = searchFailed
				lookupError = "The metadata lookup failed; you can still add the book manually."
				form.ISBN = isbn
			default:
				form = formFromDetails(details)
			}
		}
	}

	ctrl.renderAddPage(c, http.StatusOK, form, result, lookupError)
}

func (ctrl *AddController) renderAddPage(c *gin.Context, status int, form bookForm, result, lookupError string) {
	c.HTML(status, "add", gin.H{
		"Auth":            GetAuthTemplateData(c),
		"Active":          "add",
		"Form":            form,
		"SearchResult":    result,
		"LookupError":     lookupError,
		"Providers":       ctrl.providers.Names(),
		"DefaultProvider": ctrl.providers.Default(),
		"HasProvider":     !ctrl.providers.Empty(),
		"CSRFToken":       csrfToken(c),
	})
}

// CreateBook handles the add form submission.
func (ctrl *AddController) CreateBook(c *gin.Context) {
	userID := currentUserID(c)

	form, book, placement, err := ctrl.parseForm(c, userID)
	if err != nil {
		ctrl.renderAddPage(c, http.StatusBadRequest, form, searchFound, err.Error())
		return
	}

	err = ctrl.books.Create(book, splitList(form.Authors), splitList(form.Tags), placement)
	if errors.Is(err, books.ErrDuplicateISBN) {
		ctrl.renderAddPage(c, http.StatusConflict, form, searchAlreadyExists, "")
		return
	}
	if errors.Is(err, books.ErrSeriesSlotTaken) {
		ctrl.renderAddPage(c, http.StatusConflict, form, searchFound, "That series position is already taken.")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error saving book")
		return
	}

	if err := ctrl.covers.Save(userID, book.ID, form.CoverArt); err != nil {
		log.Printf("Could not save cover for book %s: %v", book.ID, err)
	}

	c.Redirect(http.StatusFound, "/book/"+book.ID)
}

// EditPage renders the edit form prefilled from the stored book.
func (ctrl *AddController) EditPage(c *gin.Context) {
	userID := currentUserID(c)
	id := c.Param("id")

	book, err := ctrl.books.GetByID(id, userID)
	if errors.Is(err, books.ErrBookNotFound) {
		c.String(http.StatusNotFound, "Book not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading book")
		return
	}

	placement, err := ctrl.books.Placement(id)
	if err != nil {
		c.String(http.StatusInternalServerError, "Error loading series")
		return
	}

	form := bookForm{
		ISBN:           book.ISBN,
		Title:          book.Title,
		Summary:        book.Summary,
		Publisher:      derefOr(book.Publisher, ""),
		Language:       derefOr(book.Language, ""),
		GoogleID:       derefOr(book.GoogleID, ""),
		GoodreadsID:    derefOr(book.GoodreadsID, ""),
		AmazonID:       derefOr(book.AmazonID, ""),
		LibraryThingID: derefOr(book.LibraryThingID, ""),
		Owned:          book.Owned,
		Read:           book.Read,
	}
	if book.Published != nil {
		form.Published = book.Published.Format("2006-01-02")
	}
	if book.PageCount != nil {
		form.PageCount = strconv.Itoa(*book.PageCount)
	}

	authorNames := make([]string, 0, len(book.Authors))
	for _, a := range book.Authors {
		authorNames = append(authorNames, a.Name)
	}
	form.Authors = joinList(authorNames)

	tagNames := make([]string, 0, len(book.Tags))
	for _, t := range book.Tags {
		tagNames = append(tagNames, t.Name)
	}
	form.Tags = joinList(tagNames)

	if placement != nil {
		form.SeriesName = placement.SeriesName
		form.SeriesNumber = strconv.Itoa(placement.Number)
	}

	c.HTML(http.StatusOK, "edit", gin.H{
		"Auth":      GetAuthTemplateData(c),
		"Active":    "books",
		"BookID":    id,
		"Form":      form,
		"CSRFToken": csrfToken(c),
	})
}

// UpdateBook handles the edit form submission.
func (ctrl *AddController) UpdateBook(c *gin.Context) {
	userID := currentUserID(c)
	id := c.Param("id")

	form, book, placement, err := ctrl.parseForm(c, userID)
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid form: %s", err.Error())
		return
	}
	book.ID = id

	err = ctrl.books.Update(book, splitList(form.Authors), splitList(form.Tags), placement)
	switch {
	case errors.Is(err, books.ErrBookNotFound):
		c.String(http.StatusNotFound, "Book not found")
		return
	case errors.Is(err, books.ErrDuplicateISBN):
		c.String(http.StatusConflict, "Another of your books already has this ISBN")
		return
	case errors.Is(err, books.ErrSeriesSlotTaken):
		c.String(http.StatusConflict, "That series position is already taken")
		return
	case err != nil:
		c.String(http.StatusInternalServerError, "Error saving book")
		return
	}

	if form.CoverArt != "" {
		if err := ctrl.covers.Save(userID, id, form.CoverArt); err != nil {
			log.Printf("Could not save cover for book %s: %v", id, err)
		}
	}

	c.Redirect(http.StatusFound, "/book/"+id)
}

// parseForm converts the submitted fields into an entity and an optional
// series placement. The series row is created on first use, like authors
// and tags.
func (ctrl *AddController) parseForm(c *gin.Context, userID string) (bookForm, *entities.Book, *books.SeriesPlacement, error) {
	form := bookForm{
		ISBN:           metadata.NormalizeISBN(c.PostForm("isbn")),
		Title:          c.PostForm("title"),
		Authors:        c.PostForm("authors"),
		Tags:           c.PostForm("tags"),
		Summary:        c.PostForm("summary"),
		Published:      c.PostForm("published"),
		Publisher:      c.PostForm("publisher"),
		Language:       c.PostForm("language"),
		GoogleID:       c.PostForm("googleid"),
		GoodreadsID:    c.PostForm("goodreadsid"),
		AmazonID:       c.PostForm("amazonid"),
		LibraryThingID: c.PostForm("librarythingid"),
		PageCount:      c.PostForm("pagecount"),
		Owned:          c.PostForm("owned") != "",
		Read:           c.PostForm("read") != "",
		SeriesName:     c.PostForm("series"),
		SeriesNumber:   c.PostForm("seriesnumber"),
		CoverArt:       c.PostForm("cover"),
	}

	if form.ISBN == "" {
		return form, nil, nil, errors.New("ISBN is required")
	}
	if form.Title == "" {
		return form, nil, nil, errors.New("title is required")
	}

	published, err := parseOptionalDate(form.Published)
	if err != nil {
		return form, nil, nil, errors.New("invalid publication date")
	}
	pageCount, err := parseOptionalInt(form.PageCount)
	if err != nil {
		return form, nil, nil, errors.New("invalid page count")
	}

	book := &entities.Book{
		OwnerID:        userID,
		ISBN:           form.ISBN,
		Title:          form.Title,
		Summary:        form.Summary,
		Published:      published,
		Publisher:      optionalString(form.Publisher),
		Language:       optionalString(form.Language),
		GoogleID:       optionalString(form.GoogleID),
		GoodreadsID:    optionalString(form.GoodreadsID),
		AmazonID:       optionalString(form.AmazonID),
		LibraryThingID: optionalString(form.LibraryThingID),
		PageCount:      pageCount,
		Owned:          form.Owned,
		Read:           form.Read,
	}

	var placement *books.SeriesPlacement
	if form.SeriesName != "" {
		number, err := parseOptionalInt(form.SeriesNumber)
		if err != nil || number == nil {
			return form, nil, nil, errors.New("a series requires a volume number")
		}

		s, err := ctrl.series.GetOrCreate(userID, form.SeriesName)
		if err != nil {
			return form, nil, nil, errors.New("could not resolve series")
		}
		placement = &books.SeriesPlacement{
			SeriesID:   s.ID,
			SeriesName: s.Name,
			Number:     *number,
		}
	}

	return form, book, placement, nil
}

package metadata

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const openLibraryBaseURL = "https://openlibrary.org"

// OpenLibraryClient fetches book metadata from the OpenLibrary API.
//
// A lookup walks three resources: the edition record for the ISBN, the
// work it belongs to (title, description, subjects, author references),
// and one record per author to resolve names.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	coversURL   string
	contact     string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewOpenLibraryClient creates a rate-limited OpenLibrary client. The
// contact string is included in the User-Agent as OpenLibrary requests.
func NewOpenLibraryClient(contact string) *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:     openLibraryBaseURL,
		coversURL:   "https://covers.openlibrary.org",
		contact:     contact,
		rateLimiter: newRateLimiter(time.Second),
	}
}

func (c *OpenLibraryClient) Name() string { return "openlibrary" }

type olReference struct {
	Key string `json:"key"`
}

type olAuthorRef struct {
	Author olReference `json:"author"`
	Type   olReference `json:"type"`
}

type olEdition struct {
	PublishDate   string        `json:"publish_date"`
	Publishers    []string      `json:"publishers"`
	Languages     []olReference `json:"languages"`
	NumberOfPages int           `json:"number_of_pages"`
	Covers        []int64       `json:"covers"`
	Works         []olReference `json:"works"`
}

type olWork struct {
	Title       string          `json:"title"`
	Description json.RawMessage `json:"description"`
	Subjects    []string        `json:"subjects"`
	Authors     []olAuthorRef   `json:"authors"`
}

type olAuthor struct {
	Name string `json:"name"`
}

// FetchByISBN implements Provider against the OpenLibrary API.
func (c *OpenLibraryClient) FetchByISBN(ctx context.Context, isbn string) (*BookDetails, error) {
	isbn = NormalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("invalid ISBN")
	}

	var edition olEdition
	found, err := c.getJSON(ctx, fmt.Sprintf("%s/isbn/%s.json", c.baseURL, isbn), &edition)
	if err != nil {
		return nil, fmt.Errorf("fetch edition: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}

	if len(edition.Works) == 0 {
		return nil, fmt.Errorf("edition %s references no work", isbn)
	}

	var work olWork
	found, err = c.getJSON(ctx, fmt.Sprintf("%s%s.json", c.baseURL, edition.Works[0].Key), &work)
	if err != nil {
		return nil, fmt.Errorf("fetch work: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("work %s disappeared", edition.Works[0].Key)
	}

	var authors []string
	for _, ref := range work.Authors {
		if ref.Type.Key != "" && ref.Type.Key != "/type/author_role" {
			continue
		}
		var author olAuthor
		found, err := c.getJSON(ctx, fmt.Sprintf("%s%s.json", c.baseURL, ref.Author.Key), &author)
		if err != nil {
			return nil, fmt.Errorf("fetch author %s: %w", ref.Author.Key, err)
		}
		if found && author.Name != "" {
			authors = append(authors, author.Name)
		}
	}

	details := &BookDetails{
		ISBN:      isbn,
		Title:     work.Title,
		Authors:   authors,
		Tags:      work.Subjects,
		Summary:   decodeDescription(work.Description),
		Published: parsePublishDate(edition.PublishDate),
		PageCount: edition.NumberOfPages,
	}

	if len(edition.Publishers) > 0 {
		details.Publisher = edition.Publishers[0]
	}
	if len(edition.Languages) > 0 {
		details.Language = strings.TrimPrefix(edition.Languages[0].Key, "/languages/")
	}
	if len(edition.Covers) > 0 {
		cover, err := c.fetchCover(ctx, edition.Covers[0])
		if err == nil {
			details.CoverArt = cover
		}
	}

	return details, nil
}

// getJSON fetches and decodes a resource. It returns found=false on 404 so
// callers can distinguish a miss from a failure.
func (c *OpenLibraryClient) getJSON(ctx context.Context, url string, out any) (bool, error) {
	c.rateLimiter.wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

func (c *OpenLibraryClient) fetchCover(ctx context.Context, coverID int64) (string, error) {
	c.rateLimiter.wait()

	url := fmt.Sprintf("%s/b/id/%d-M.jpg", c.coversURL, coverID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func (c *OpenLibraryClient) userAgent() string {
	ua := "bouquineur/1.0"
	if c.contact != "" {
		ua = fmt.Sprintf("%s (%s)", ua, c.contact)
	}
	return ua
}

// decodeDescription handles the two shapes OpenLibrary uses for work
// descriptions: a bare string or a {"type", "value"} object.
func decodeDescription(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var wrapped struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return wrapped.Value
	}
	return ""
}

// parsePublishDate tries the date layouts OpenLibrary editions actually
// carry, from full dates down to a bare year (mapped to January 1st).
func parsePublishDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"January 2, 2006",
		"Jan 2, 2006",
		"January 2006",
		"Jan 2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}

	if year, err := strconv.Atoi(value); err == nil && year > 0 {
		t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return &t
	}

	return nil
}

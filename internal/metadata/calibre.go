package metadata

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// CalibreFetcher fetches book metadata by shelling out to calibre's
// fetch-ebook-metadata tool and parsing the OPF document it prints.
type CalibreFetcher struct {
	fetcherPath string
}

// NewCalibreFetcher creates a provider around the given fetch-ebook-metadata
// binary path.
func NewCalibreFetcher(fetcherPath string) *CalibreFetcher {
	return &CalibreFetcher{fetcherPath: fetcherPath}
}

func (f *CalibreFetcher) Name() string { return "calibre" }

// FetchByISBN implements Provider by running the calibre fetcher.
func (f *CalibreFetcher) FetchByISBN(ctx context.Context, isbn string) (*BookDetails, error) {
	isbn = NormalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("invalid ISBN")
	}

	coverFile, err := os.CreateTemp("", "bouquineur-cover-*.jpg")
	if err != nil {
		return nil, fmt.Errorf("create cover file: %w", err)
	}
	coverPath := coverFile.Name()
	coverFile.Close()
	defer os.Remove(coverPath)

	cmd := exec.CommandContext(ctx, f.fetcherPath,
		"--isbn", isbn,
		"--opf",
		"--cover", coverPath,
	)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The fetcher exits non-zero both on lookup misses and real
			// failures; a miss leaves no OPF on stdout.
			if len(output) == 0 {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("fetcher failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("launch fetcher: %w", err)
	}

	cover, _ := os.ReadFile(coverPath)

	details, err := parseOPF(output, cover)
	if err != nil {
		return nil, err
	}
	if details.ISBN == "" {
		details.ISBN = isbn
	}
	return details, nil
}

type opfIdentifier struct {
	Scheme string `xml:"scheme,attr"`
	Value  string `xml:",chardata"`
}

type opfCreator struct {
	Role  string `xml:"role,attr"`
	Value string `xml:",chardata"`
}

type opfMetadata struct {
	Title       string          `xml:"title"`
	Creators    []opfCreator    `xml:"creator"`
	Identifiers []opfIdentifier `xml:"identifier"`
	Subjects    []string        `xml:"subject"`
	Description string          `xml:"description"`
	Date        string          `xml:"date"`
	Publisher   string          `xml:"publisher"`
	Language    string          `xml:"language"`
}

type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Metadata opfMetadata `xml:"metadata"`
}

// parseOPF extracts book details from an OPF document as produced by
// fetch-ebook-metadata.
func parseOPF(document, coverArt []byte) (*BookDetails, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(document, &pkg); err != nil {
		return nil, fmt.Errorf("parse OPF document: %w", err)
	}

	meta := pkg.Metadata
	details := &BookDetails{
		Title:     meta.Title,
		Tags:      meta.Subjects,
		Summary:   meta.Description,
		Publisher: meta.Publisher,
		Language:  meta.Language,
	}

	for _, creator := range meta.Creators {
		if creator.Role == "aut" || creator.Role == "" {
			name := strings.TrimSpace(creator.Value)
			if name != "" {
				details.Authors = append(details.Authors, name)
			}
		}
	}

	for _, id := range meta.Identifiers {
		value := strings.TrimSpace(id.Value)
		switch id.Scheme {
		case "ISBN":
			details.ISBN = value
		case "GOOGLE":
			details.GoogleID = value
		case "AMAZON":
			details.AmazonID = value
		}
	}

	if meta.Date != "" {
		if t, err := time.Parse(time.RFC3339, meta.Date); err == nil {
			details.Published = &t
		}
	}

	if len(coverArt) > 0 {
		details.CoverArt = base64.StdEncoding.EncodeToString(coverArt)
	}

	return details, nil
}

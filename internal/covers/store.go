// Package covers stores book cover images on disk.
//
// Covers live under imageDir/{ownerID}/{bookID}.jpg so that two owners of
// the same edition keep independent images.
package covers

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// Store handles cover image persistence for books.
type Store struct {
	imageDir string
}

// NewStore creates a cover store rooted at the given directory.
func NewStore(imageDir string) (*Store, error) {
	if err := os.MkdirAll(imageDir, 0755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &Store{imageDir: imageDir}, nil
}

// Save decodes a base64 JPEG and writes it as the book's cover.
func (s *Store) Save(ownerID, bookID, coverB64 string) error {
	if coverB64 == "" {
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(coverB64)
	if err != nil {
		return fmt.Errorf("decode cover: %w", err)
	}

	dir := filepath.Join(s.imageDir, ownerID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create owner dir: %w", err)
	}

	return os.WriteFile(s.path(ownerID, bookID), data, 0644)
}

// Path returns the cover file path when one exists, or "" otherwise.
func (s *Store) Path(ownerID, bookID string) string {
	path := s.path(ownerID, bookID)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Read returns the stored cover as base64, or "" when the book has none.
func (s *Store) Read(ownerID, bookID string) (string, error) {
	data, err := os.ReadFile(s.path(ownerID, bookID))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Delete removes the book's cover if present.
func (s *Store) Delete(ownerID, bookID string) error {
	err := os.Remove(s.path(ownerID, bookID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) path(ownerID, bookID string) string {
	return filepath.Join(s.imageDir, ownerID, bookID+".jpg")
}

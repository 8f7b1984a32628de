package assets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Entry describes one stored image. ReferenceURL is the exact string the
// agent embeds into slide markup, so it must resolve from the editor's origin.
type Entry struct {
	Name         string `json:"name"`
	ReferenceURL string `json:"reference_url"`
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
	".bmp":  true,
}

// Store manages the image directory for a presentation library.
type Store struct {
	dir     string
	baseURL string
}

// NewStore returns a store rooted at dir. baseURL prefixes reference URLs
// (e.g. "/images").
func NewStore(dir, baseURL string) *Store {
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Dir returns the image directory.
func (s *Store) Dir() string {
	return s.dir
}

// List returns the images currently on disk, creating the directory if
// missing. Listings are never cached: the agent embeds reference URLs
// verbatim, so it must always see the directory as it is now.
func (s *Store) List() ([]Entry, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read images dir: %w", err)
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !imageExtensions[ext] {
			continue
		}
		out = append(out, Entry{
			Name:         e.Name(),
			ReferenceURL: s.baseURL + "/" + e.Name(),
		})
	}
	return out, nil
}

// Save copies the file at sourcePath into the store and returns the stored
// filename. Name collisions resolve with a stem-N.ext counter suffix.
func (s *Store) Save(sourcePath string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create images dir: %w", err)
	}

	base := filepath.Base(sourcePath)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid source path %q", sourcePath)
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	destName := base
	destPath := filepath.Join(s.dir, destName)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(destPath); os.IsNotExist(err) {
			break
		}
		destName = fmt.Sprintf("%s-%d%s", stem, counter, ext)
		destPath = filepath.Join(s.dir, destName)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("open source image: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	return destName, nil
}

// Delete removes an image by its stored name.
func (s *Store) Delete(name string) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("invalid image name %q", name)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

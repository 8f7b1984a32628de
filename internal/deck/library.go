package deck

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileEntry describes one stored presentation file.
type FileEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Library manages presentation files in a directory. Presentations are plain
// JSON documents; only .json files are listed.
type Library struct {
	dir string
}

// NewLibrary returns a library rooted at dir.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// Dir returns the library root.
func (l *Library) Dir() string {
	return l.dir
}

// DefaultDir returns the conventional storage location, ~/Documents/Presentor.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, "Documents", "Presentor"), nil
}

// List returns the presentation files in the library, creating the directory
// if it does not exist yet.
func (l *Library) List() ([]FileEntry, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read library dir: %w", err)
	}

	out := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		out = append(out, FileEntry{
			Name: e.Name(),
			Path: filepath.Join(l.dir, e.Name()),
		})
	}
	return out, nil
}

// Load reads and decodes a presentation file.
func (l *Library) Load(path string) (Presentation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Presentation{}, fmt.Errorf("read presentation: %w", err)
	}

	var p Presentation
	if err := json.Unmarshal(data, &p); err != nil {
		return Presentation{}, fmt.Errorf("decode presentation: %w", err)
	}
	return p, nil
}

// Save writes a presentation to path, creating parent directories as needed.
func (l *Library) Save(path string, p Presentation) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parent dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode presentation: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save presentation: %w", err)
	}
	return nil
}

// Delete removes a presentation file.
func (l *Library) Delete(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete presentation: %w", err)
	}
	return nil
}

package videos

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrVideoNotFound = errors.New("video not found")

var extensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
	".mkv": true,
}

// Source is a resolved feed input.
type Source struct {
	Name string
	// Location is a file path or stream URL passed to the capture backend
	Location string
	// Live sources are never rewound; files loop at end of stream
	Live bool
}

// Library lists and resolves the video files in one directory.
type Library struct {
	dir string
}

func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

func (l *Library) Dir() string { return l.dir }

// List returns the playable files in the directory, sorted by name. A
// missing directory yields an empty list.
func (l *Library) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read video directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if extensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Resolve maps a request source to a capture location. Stream URLs pass
// through; anything else must name a file in the library. Path components
// are stripped.
func (l *Library) Resolve(source string) (Source, error) {
	if strings.Contains(source, "://") {
		return Source{Name: source, Location: source, Live: true}, nil
	}

	name := filepath.Base(source)
	names, err := l.List()
	if err != nil {
		return Source{}, err
	}
	for _, n := range names {
		if n == name {
			return Source{Name: name, Location: filepath.Join(l.dir, name)}, nil
		}
	}
	return Source{}, fmt.Errorf("%w: %s", ErrVideoNotFound, name)
}

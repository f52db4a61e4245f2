package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// FSLoader loads templates from a filesystem, searching each root in order.
type FSLoader struct {
	fs         afero.Fs
	searchPath []string
}

// NewFSLoader creates a filesystem loader. With no search path the current
// directory is used.
func NewFSLoader(fsys afero.Fs, searchPath ...string) *FSLoader {
	if len(searchPath) == 0 {
		searchPath = []string{"."}
	}
	return &FSLoader{
		fs:         fsys,
		searchPath: searchPath,
	}
}

// GetSource implements Loader
func (l *FSLoader) GetSource(name string) (string, error) {
	pieces, err := SplitName(name)
	if err != nil {
		return "", err
	}

	for _, root := range l.searchPath {
		path := filepath.Join(append([]string{root}, pieces...)...)

		info, err := l.fs.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}

		data, err := afero.ReadFile(l.fs, path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), nil
	}

	return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
}

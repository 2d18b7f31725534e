package media

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
)

// tempFile is a read-only stream over a file that is removed on Close.
type tempFile struct {
	*os.File
	path string
	once sync.Once
	err  error
}

var _ io.ReadSeekCloser = (*tempFile)(nil)

func openTemp(path string) (*tempFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &tempFile{File: f, path: path}, nil
}

// Close closes the file and deletes it. Later calls return the first result.
func (t *tempFile) Close() error {
	t.once.Do(func() {
		closeErr := t.File.Close()
		rmErr := os.Remove(t.path)
		if errors.Is(rmErr, fs.ErrNotExist) {
			rmErr = nil
		}
		t.err = errors.Join(closeErr, rmErr)
	})
	return t.err
}

// Path returns the location of the prepared file.
func (t *tempFile) Path() string { return t.path }

// Package assets stores generated and uploaded files (QR codes, event images)
// on an afero filesystem.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

const (
	// QRDir holds registration QR codes.
	QRDir = "qr"
	// EventImageDir holds featured event images.
	EventImageDir = "events"

	dirPerm  = 0o750
	filePerm = 0o640
)

var (
	// ErrInvalidPath is returned for empty or escaping asset paths.
	ErrInvalidPath = errors.New("invalid asset path")
	// ErrAssetNotFound is returned when reading a missing asset.
	ErrAssetNotFound = errors.New("asset not found")
)

// Store is a rooted asset store. Asset paths are relative, the filesystem is
// always addressed with a leading slash.
type Store struct {
	fs afero.Fs
}

// New returns a Store writing below root on the local disk.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create asset directory %s: %w", root, err)
	}

	return NewWithFs(afero.NewBasePathFs(afero.NewOsFs(), root)), nil
}

// NewWithFs wraps an existing filesystem, e.g. afero.NewMemMapFs() in tests.
func NewWithFs(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// QRPath returns the asset path of the QR code of a registration code.
func QRPath(code string) string {
	return path.Join(QRDir, code+".svg")
}

// Put writes data to name, replacing an existing file.
func (s *Store) Put(name string, data []byte) error {
	name, err := clean(name)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll("/"+path.Dir(name), dirPerm); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}

	if err := afero.WriteFile(s.fs, "/"+name, data, filePerm); err != nil {
		return fmt.Errorf("failed to write asset %s: %w", name, err)
	}

	return nil
}

// PutReader copies r to name.
func (s *Store) PutReader(name string, r io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("failed to read asset %s: %w", name, err)
	}

	return s.Put(name, buf.Bytes())
}

// Read returns the content of name.
func (s *Store) Read(name string) ([]byte, error) {
	name, err := clean(name)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, "/"+name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read asset %s: %w", name, err)
	}

	return data, nil
}

// Exists reports whether name is a stored file.
func (s *Store) Exists(name string) bool {
	name, err := clean(name)
	if err != nil {
		return false
	}

	ok, err := afero.Exists(s.fs, "/"+name)

	return err == nil && ok
}

// Delete removes name. Missing files are not an error.
func (s *Store) Delete(name string) error {
	name, err := clean(name)
	if err != nil {
		return err
	}

	if err := s.fs.Remove("/"+name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete asset %s: %w", name, err)
	}

	return nil
}

// HTTPFileSystem exposes the store read-only for the media route.
func (s *Store) HTTPFileSystem() http.FileSystem {
	return afero.NewHttpFs(afero.NewReadOnlyFs(s.fs))
}

func clean(name string) (string, error) {
	name = strings.TrimLeft(path.Clean(strings.TrimSpace(name)), "/")
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}

	return name, nil
}

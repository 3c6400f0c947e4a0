package assets

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const jpegQuality = 85

// ErrUnsupportedImage is returned for uploads that are not a decodable image.
var ErrUnsupportedImage = errors.New("unsupported image")

// SaveImage decodes an uploaded image, shrinks it to fit maxWidth x maxHeight
// and stores it as JPEG under EventImageDir. It returns the asset path.
func (s *Store) SaveImage(r io.Reader, maxWidth, maxHeight int) (string, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}

	b := img.Bounds()
	if maxWidth > 0 && maxHeight > 0 && (b.Dx() > maxWidth || b.Dy() > maxHeight) {
		img = imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	name := path.Join(EventImageDir, uuid.NewString()+".jpg")
	if err := s.Put(name, buf.Bytes()); err != nil {
		return "", err
	}

	return name, nil
}

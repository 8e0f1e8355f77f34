package remote

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// uploadFormats are the image formats the puzzle service can cut. WebP is
// registered only so it can be recognised and rejected by name.
var uploadFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"bmp":  true,
	"tiff": true,
}

// DetectImageFormat returns the format name of an encoded image, or an
// error wrapping ErrUnsupportedImage when the service cannot read it.
func DetectImageFormat(data []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return "", fmt.Errorf("%w: unrecognised format", ErrUnsupportedImage)
		}
		return "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if !uploadFormats[format] {
		return format, fmt.Errorf("%w: %s", ErrUnsupportedImage, format)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return format, fmt.Errorf("%w: empty %s image", ErrUnsupportedImage, format)
	}
	return format, nil
}

// multipartImage builds the upload body with the file in field "image".
func multipartImage(filename string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

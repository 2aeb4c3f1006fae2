package item

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Image is the photographed source question.
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
}

var supportedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
}

// LoadImage reads an image file and detects its MIME type from content.
func LoadImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	return NewImage(filepath.Base(path), data)
}

// NewImage wraps raw bytes, rejecting empty or non-image content.
func NewImage(name string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("image %q is empty", name)
	}
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !supportedImageTypes[mime] {
		return Image{}, fmt.Errorf("image %q has unsupported type %s", name, mime)
	}
	return Image{Name: name, MIMEType: mime, Data: data}, nil
}

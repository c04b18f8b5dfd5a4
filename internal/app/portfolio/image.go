package portfolio

import (
	"path"
	"strings"
)

const (
	// MaxImageSizeMB is the largest single image returned to a client, in megabytes.
	MaxImageSizeMB = 5

	// MaxImageSize is MaxImageSizeMB in bytes.
	MaxImageSize = MaxImageSizeMB * 1024 * 1024

	// MaxItems caps how many images one fetch may return.
	MaxItems = 50
)

// ExtToMIME maps the accepted image file extensions to their MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// Item is one retrieved image.
type Item struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// ImageMIME returns the MIME type for an image file name, or false if the extension is not accepted.
func ImageMIME(fileName string) (string, bool) {
	ext := strings.ToLower(path.Ext(fileName))
	if len(ext) < 2 {
		return "", false
	}

	mimeType, ok := ExtToMIME[ext]
	return mimeType, ok
}

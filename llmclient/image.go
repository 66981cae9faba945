package llmclient

import (
	"path/filepath"
	"strings"
)

// mimeTypeForPath guesses an image MIME type from its file extension. The
// providers' image-attachment APIs require one of a small fixed set; an
// unrecognized extension falls back to JPEG rather than failing the call,
// matching the builder's never-refuse-outright contract.
func mimeTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

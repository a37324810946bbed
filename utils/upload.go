package utils

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var allowedImageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// IsAllowedImage checks extension and mimetype; both must look like an image.
func IsAllowedImage(filename, contentType string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExts[ext] {
		return false
	}
	return strings.HasPrefix(contentType, "image/")
}

// UploadFilename builds a collision-free name for a stored photo, keeping the
// original extension.
func UploadFilename(original string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(original))
}

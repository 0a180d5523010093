package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType represents the type of a library file.
type FileType string

const (
	// FileTypeVideo represents a video the transcoder recognizes.
	FileTypeVideo FileType = "video"
	// FileTypeOther represents anything else.
	FileTypeOther FileType = "other"
)

// OutputExtension is the extension of every published variant.
const OutputExtension = ".mp4"

// VideoExtensions is the allow-list of recognized video extensions
// (lowercase, with leading dot). It is used for both the source and the
// publish tree.
var VideoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
}

// MimeTypes maps recognized video extensions to their MIME types.
var MimeTypes = map[string]string{
	".mp4": "video/mp4",
	".mov": "video/quicktime",
}

// GetFileType returns the FileType for a file name or path. The extension
// is matched case-insensitively.
func GetFileType(name string) FileType {
	if VideoExtensions[strings.ToLower(filepath.Ext(name))] {
		return FileTypeVideo
	}
	return FileTypeOther
}

// IsVideo reports whether name has a recognized video extension.
func IsVideo(name string) bool {
	return GetFileType(name) == FileTypeVideo
}

// GetMimeType returns the MIME type for a file name or path.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(name string) string {
	if mime, ok := MimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IdentityKey returns the asset identity key of a file: the part of its base
// name before the first ".". "A1B2.mov" and "A1B2.mp4" share the key "A1B2";
// "clip.v2.mov" maps to "clip".
func IdentityKey(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// OutputName returns the published file name for a source path.
func OutputName(path string) string {
	return IdentityKey(path) + OutputExtension
}

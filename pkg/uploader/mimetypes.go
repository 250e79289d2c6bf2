package uploader

import (
	"mime"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Content types accepted by the telegraph upload endpoint.
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeMP4  = "video/mp4"
)

// AllowedContentTypes is the upload allow-list.
var AllowedContentTypes = map[string]bool{
	ContentTypeJPEG: true,
	ContentTypePNG:  true,
	ContentTypeGIF:  true,
	ContentTypeMP4:  true,
}

// IsAllowedContentType checks whether the given content type may be uploaded.
func IsAllowedContentType(contentType string) bool {
	return AllowedContentTypes[contentType]
}

// extensionTypes maps lower-case file extensions to their canonical MIME type.
var extensionTypes = map[string]string{
	".jpg":  ContentTypeJPEG,
	".jpeg": ContentTypeJPEG,
	".jpe":  ContentTypeJPEG,
	".png":  ContentTypePNG,
	".gif":  ContentTypeGIF,
	".mp4":  ContentTypeMP4,
	".m4v":  "video/x-m4v",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".svg":  "image/svg+xml",
	".ico":  "image/vnd.microsoft.icon",
	".heic": "image/heic",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".txt":  "text/plain",
	".html": "text/html",
	".json": "application/json",
	".pdf":  "application/pdf",
}

// typeExtensions maps MIME types to their preferred extension. image/jpg is
// the only non-standard alias accepted; other aliases such as image/pjpeg are
// left to the lookups below and are never folded into an allowed type.
var typeExtensions = map[string]string{
	ContentTypeJPEG: ".jpg",
	"image/jpg":     ".jpg",
	ContentTypePNG:  ".png",
	ContentTypeGIF:  ".gif",
	ContentTypeMP4:  ".mp4",
}

var headerSeparators = regexp.MustCompile(`[;,]`)

// TypeByFilename derives a content type from the extension of name.
// It returns "" when the extension is unknown.
func TypeByFilename(name string) string {
	return typeByExtension(filepath.Ext(name))
}

// TypeFromHeader derives a canonical content type from a Content-Type header
// value. Parameters are dropped and the first media type is normalized through
// its extension, so "image/jpg; charset=binary" yields "image/jpeg".
func TypeFromHeader(header string) string {
	token := strings.ToLower(strings.TrimSpace(headerSeparators.Split(header, 2)[0]))
	if token == "" {
		return ""
	}
	ext := extensionForType(token)
	if ext == "" {
		return ""
	}
	return typeByExtension(ext)
}

func typeByExtension(ext string) string {
	if ext == "" {
		return ""
	}
	ext = strings.ToLower(ext)
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	t, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil {
		return ""
	}
	return t
}

func extensionForType(contentType string) string {
	if ext, ok := typeExtensions[contentType]; ok {
		return ext
	}
	// Lookup also matches aliases; only an exact hit counts.
	if m := mimetype.Lookup(contentType); m != nil && m.String() == contentType && m.Extension() != "" {
		return m.Extension()
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

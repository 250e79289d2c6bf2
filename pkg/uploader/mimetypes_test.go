package uploader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeByFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"photo.png", ContentTypePNG},
		{"/abs/path/photo.PNG", ContentTypePNG},
		{"shot.jpg", ContentTypeJPEG},
		{"shot.jpeg", ContentTypeJPEG},
		{"anim.gif", ContentTypeGIF},
		{"clip.mp4", ContentTypeMP4},
		{"clip.m4v", "video/x-m4v"},
		{"image.webp", "image/webp"},
		{"notes.txt", "text/plain"},
		{"archive.tar.gz.png", ContentTypePNG},
		{"README", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeByFilename(tt.name))
		})
	}
}

func TestTypeFromHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"image/jpeg", ContentTypeJPEG},
		{"image/jpeg; charset=binary", ContentTypeJPEG},
		{"image/png,image/gif", ContentTypePNG},
		{"  IMAGE/PNG  ", ContentTypePNG},
		{"image/jpg", ContentTypeJPEG},
		{"video/x-m4v", "video/x-m4v"},
		{"video/mp4", ContentTypeMP4},
		{"image/gif;foo=bar", ContentTypeGIF},
		{"text/html; charset=utf-8", "text/html"},
		{"", ""},
		{";", ""},
		{"application/x-definitely-unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeFromHeader(tt.header))
		})
	}
}

func TestIsAllowedContentType(t *testing.T) {
	for _, ct := range []string{ContentTypeJPEG, ContentTypePNG, ContentTypeGIF, ContentTypeMP4} {
		assert.True(t, IsAllowedContentType(ct), ct)
	}
	for _, ct := range []string{"", "image/webp", "image/jpg", "video/quicktime", "image/png; charset=binary"} {
		assert.False(t, IsAllowedContentType(ct), ct)
	}
}

func TestTypeFromHeader_AliasesStayOutsideAllowList(t *testing.T) {
	for _, header := range []string{"image/pjpeg", "image/x-png", "video/x-m4v", "video/quicktime"} {
		assert.False(t, IsAllowedContentType(TypeFromHeader(header)), header)
	}
	assert.True(t, IsAllowedContentType(TypeFromHeader("image/jpg")))
}

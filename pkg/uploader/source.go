package uploader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"regexp"
)

// Source describes where the media to upload comes from. It is one of
// StreamSource, URLSource or PathSource.
type Source interface {
	source()
}

// StreamSource is an already-open stream. Its content type is derived from
// Name's extension and the stream is never closed by the uploader.
type StreamSource struct {
	Reader io.Reader
	Name   string
}

// URLSource is a remote http(s) resource fetched before upload.
type URLSource struct {
	URL string
}

// PathSource is a local file opened read-only for the duration of the call.
type PathSource struct {
	Path string
}

func (StreamSource) source() {}
func (URLSource) source()    {}
func (PathSource) source()   {}

// NamedReader is a readable stream that knows its own name, such as *os.File.
type NamedReader interface {
	io.Reader
	Name() string
}

// ErrNilReader is returned for a stream source without a reader.
var ErrNilReader = errors.New("stream source has no reader")

var remoteURLPattern = regexp.MustCompile(`(?i)^https?://`)

// SourceOf classifies v in priority order: a Source is used as is, a
// NamedReader becomes a StreamSource, and a string becomes a URLSource when
// it starts with http:// or https:// (any case) or a PathSource otherwise.
func SourceOf(v any) (Source, error) {
	switch s := v.(type) {
	case Source:
		return s, nil
	case NamedReader:
		if isNilReader(s) {
			return nil, fmt.Errorf("%T: %w", v, ErrNilReader)
		}
		return StreamSource{Reader: s, Name: s.Name()}, nil
	case string:
		return ParseSource(s), nil
	default:
		return nil, fmt.Errorf("unsupported source %T", v)
	}
}

// ParseSource turns a URL or a filesystem path into a Source.
func ParseSource(s string) Source {
	if remoteURLPattern.MatchString(s) {
		return URLSource{URL: s}
	}
	return PathSource{Path: s}
}

func baseName(name string) string {
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}

// isNilReader also catches typed nils such as (*os.File)(nil).
func isNilReader(r io.Reader) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

package httpclient

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrReadTimeout is returned when the server stays silent for longer than
// Config.ReadTimeout.
var ErrReadTimeout = errors.New("read timeout")

// IsReadTimeout reports whether err was caused by an elapsed read timeout.
func IsReadTimeout(err error) bool {
	return errors.Is(err, ErrReadTimeout)
}

// ReadBody reads the whole response body and closes it.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return body, fmt.Errorf("read body (status %d): %w", resp.StatusCode, err)
	}
	return body, nil
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/errors"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/httpclient"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/logger"
)

// blobFilename is the part filename used for fetched remote media.
const blobFilename = "blob"

// ResolvedAsset is the byte content, filename and content type derived from
// a Source. Close releases the underlying file if the uploader opened it.
type ResolvedAsset struct {
	Filename    string
	ContentType string
	Body        io.Reader

	closer    io.Closer
	closeOnce sync.Once
	closeErr  error
}

// Close releases an internally opened file. It is safe to call more than
// once; the file is closed exactly once.
func (a *ResolvedAsset) Close() error {
	if a.closer == nil {
		return nil
	}
	a.closeOnce.Do(func() {
		a.closeErr = a.closer.Close()
	})
	return a.closeErr
}

// Resolve turns src into a ResolvedAsset without validating its content type.
// The caller must Close the returned asset.
func (u *Uploader) Resolve(ctx context.Context, src Source, opts Options) (*ResolvedAsset, error) {
	opts = opts.withDefaults()
	switch s := src.(type) {
	case StreamSource:
		if isNilReader(s.Reader) {
			return nil, fmt.Errorf("stream %q: %w", s.Name, ErrNilReader)
		}
		return &ResolvedAsset{
			Filename:    baseName(s.Name),
			ContentType: TypeByFilename(s.Name),
			Body:        s.Reader,
		}, nil
	case URLSource:
		return u.fetch(ctx, s.URL, opts)
	case PathSource:
		f, err := u.open(s.Path)
		if err != nil {
			return nil, apperrors.Source(s.Path, err)
		}
		return &ResolvedAsset{
			Filename:    baseName(s.Path),
			ContentType: TypeByFilename(s.Path),
			Body:        f,
			closer:      f,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported source %T", src)
	}
}

func (u *Uploader) fetch(ctx context.Context, rawURL string, opts Options) (*ResolvedAsset, error) {
	ctx, span := tracer.Start(ctx, "uploader.fetch")
	defer span.End()

	log := logger.WithContext(ctx, u.log(ctx))
	start := time.Now()
	defer func() {
		phaseDuration.WithLabelValues(phaseFetch).Observe(time.Since(start).Seconds())
	}()

	fail := func(appErr *apperrors.AppError) (*ResolvedAsset, error) {
		span.RecordError(appErr)
		span.SetStatus(codes.Error, appErr.Message)
		log.WarnContext(ctx, "fetch failed",
			slog.String("url", rawURL),
			slog.String("error", appErr.Error()),
		)
		return nil, appErr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fail(apperrors.Fetch("invalid url", err))
	}
	req.Header.Set("User-Agent", opts.UserAgent)

	client := httpclient.New(httpclient.Config{
		ConnectTimeout:  opts.FetchTimeout.Connect,
		ReadTimeout:     opts.FetchTimeout.Read,
		MaxConnsPerHost: 1,
	})
	defer client.CloseIdleConnections()

	resp, err := client.Do(ctx, req)
	if err != nil {
		return fail(apperrors.Fetch("url request failed", err))
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	header := resp.Header.Values("Content-Type")
	if resp.StatusCode != http.StatusOK || len(header) == 0 {
		_ = resp.Body.Close()
		appErr := apperrors.Fetch(fmt.Sprintf("url request failed with status code: %d", resp.StatusCode), nil)
		appErr.Detail = fmt.Sprintf("status=%d content_type_present=%t", resp.StatusCode, len(header) > 0)
		return fail(appErr)
	}

	body, err := httpclient.ReadBody(resp)
	if err != nil {
		return fail(apperrors.Fetch("read response body", err))
	}
	fetchedBytes.Observe(float64(len(body)))

	contentType := TypeFromHeader(header[0])
	log.DebugContext(ctx, "remote source fetched",
		slog.String("url", rawURL),
		slog.String("header_content_type", header[0]),
		slog.String("content_type", contentType),
		slog.Int("size", len(body)),
	)

	return &ResolvedAsset{
		Filename:    blobFilename,
		ContentType: contentType,
		Body:        bytes.NewReader(body),
	}, nil
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// Package uploader sends a single image or short video to telegra.ph and
// interprets the upload endpoint's response.
package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/errors"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/httpclient"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/logger"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/tracing"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/validator"
)

// DefaultUserAgent identifies this module to remote hosts.
const DefaultUserAgent = "telegraph-upload-go/0.1"

var tracer = tracing.Tracer("github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/uploader")

// Endpoint is the telegraph host the uploader talks to.
type Endpoint struct {
	// HostRoot is prefixed onto the relative src paths the server returns.
	HostRoot  string `validate:"required,url"`
	UploadURL string `validate:"required,url"`
}

// DefaultEndpoint is the public telegra.ph service.
var DefaultEndpoint = Endpoint{
	HostRoot:  "http://telegra.ph",
	UploadURL: "https://telegra.ph/upload",
}

// Timeouts bounds one network phase. Zero fields take the phase default.
type Timeouts struct {
	Connect time.Duration `validate:"gte=0"`
	Read    time.Duration `validate:"gte=0"`
}

// Options controls a single upload call.
type Options struct {
	UserAgent string `validate:"required,printascii,max=512"`
	// ReturnRaw returns the parsed response JSON instead of a URL.
	ReturnRaw     bool
	FetchTimeout  Timeouts
	UploadTimeout Timeouts
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		UserAgent:     DefaultUserAgent,
		FetchTimeout:  Timeouts{Connect: 10 * time.Second, Read: 10 * time.Second},
		UploadTimeout: Timeouts{Connect: 7 * time.Second, Read: 7 * time.Second},
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.UserAgent == "" {
		o.UserAgent = def.UserAgent
	}
	if o.FetchTimeout.Connect == 0 {
		o.FetchTimeout.Connect = def.FetchTimeout.Connect
	}
	if o.FetchTimeout.Read == 0 {
		o.FetchTimeout.Read = def.FetchTimeout.Read
	}
	if o.UploadTimeout.Connect == 0 {
		o.UploadTimeout.Connect = def.UploadTimeout.Connect
	}
	if o.UploadTimeout.Read == 0 {
		o.UploadTimeout.Read = def.UploadTimeout.Read
	}
	return o
}

// Uploader uploads media to a fixed Endpoint. It holds no per-call state and
// is safe for concurrent use.
type Uploader struct {
	endpoint Endpoint
	logger   *slog.Logger
	open     func(path string) (io.ReadCloser, error)
}

// New creates an uploader for endpoint. A nil logger makes every call log
// through the logger stored in its context (see logger.NewContext).
func New(endpoint Endpoint, log *slog.Logger) (*Uploader, error) {
	if err := validator.Validate(endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	return &Uploader{
		endpoint: endpoint,
		logger:   log,
		open:     openFile,
	}, nil
}

var defaultUploader = &Uploader{endpoint: DefaultEndpoint, open: openFile}

// UploadImage uploads source to telegra.ph. source may be a Source, a
// NamedReader such as *os.File, or a string holding an http(s) URL or a
// local path.
func UploadImage(ctx context.Context, source any, opts Options) (Result, error) {
	src, err := SourceOf(source)
	if err != nil {
		return Result{}, err
	}
	return defaultUploader.Upload(ctx, src, opts)
}

// Upload resolves src, checks its content type against the allow-list and
// posts it to the endpoint. Resources opened while resolving are released
// before Upload returns.
func (u *Uploader) Upload(ctx context.Context, src Source, opts Options) (res Result, err error) {
	opts = opts.withDefaults()
	if err := validator.Validate(opts); err != nil {
		return Result{}, fmt.Errorf("invalid options: %w", err)
	}

	if logger.CorrelationIDFromContext(ctx) == "" {
		ctx = logger.WithCorrelationID(ctx, uuid.NewString())
	}
	ctx, span := tracer.Start(ctx, "uploader.Upload")
	defer span.End()

	log := logger.WithContext(ctx, u.log(ctx))
	defer func() {
		uploadsTotal.WithLabelValues(outcomeOf(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	asset, err := u.Resolve(ctx, src, opts)
	if err != nil {
		return Result{}, err
	}
	defer asset.Close()

	span.SetAttributes(
		attribute.String("telegraph.filename", asset.Filename),
		attribute.String("telegraph.content_type", asset.ContentType),
	)

	if !IsAllowedContentType(asset.ContentType) {
		log.WarnContext(ctx, "unsupported content type",
			slog.String("filename", asset.Filename),
			slog.String("content_type", asset.ContentType),
		)
		return Result{}, apperrors.UnsupportedType(asset.ContentType)
	}

	body, err := u.post(ctx, asset, opts)
	if closeErr := asset.Close(); closeErr != nil {
		log.WarnContext(ctx, "failed to close source",
			slog.String("filename", asset.Filename),
			slog.String("error", closeErr.Error()),
		)
	}
	if err != nil {
		return Result{}, err
	}

	res, err = u.interpret(ctx, body, asset.ContentType, opts.ReturnRaw)
	if err != nil {
		return Result{}, err
	}

	log.InfoContext(ctx, "media uploaded",
		slog.String("filename", asset.Filename),
		slog.String("content_type", asset.ContentType),
		slog.String("result", res.Kind.String()),
	)
	return res, nil
}

func (u *Uploader) post(ctx context.Context, asset *ResolvedAsset, opts Options) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "uploader.post")
	defer span.End()

	log := logger.WithContext(ctx, u.log(ctx))
	start := time.Now()
	defer func() {
		phaseDuration.WithLabelValues(phaseUpload).Observe(time.Since(start).Seconds())
	}()

	payload, contentType, err := multipartBody(asset)
	if err != nil {
		return nil, apperrors.Upload("failed to read source", asset.Filename, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint.UploadURL, payload)
	if err != nil {
		return nil, apperrors.Upload("failed to build upload request", "", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Referer", u.endpoint.HostRoot+"/")
	req.Header.Set("User-Agent", opts.UserAgent)

	client := httpclient.New(httpclient.Config{
		ConnectTimeout:  opts.UploadTimeout.Connect,
		ReadTimeout:     opts.UploadTimeout.Read,
		MaxConnsPerHost: 1,
	})
	defer client.CloseIdleConnections()

	resp, err := client.Do(ctx, req)
	if err != nil {
		if httpclient.IsReadTimeout(err) {
			log.WarnContext(ctx, "upload timed out", slog.Duration("read_timeout", opts.UploadTimeout.Read))
			return nil, apperrors.UploadTimeout(err)
		}
		log.ErrorContext(ctx, "upload request failed", slog.String("error", err.Error()))
		return nil, apperrors.Upload("upload request failed", "", err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := httpclient.ReadBody(resp)
	if err != nil {
		if httpclient.IsReadTimeout(err) {
			log.WarnContext(ctx, "upload timed out", slog.Duration("read_timeout", opts.UploadTimeout.Read))
			return nil, apperrors.UploadTimeout(err)
		}
		return nil, apperrors.Upload("failed to read upload response", "", err)
	}

	if resp.StatusCode != http.StatusOK || len(body) == 0 {
		level := slog.LevelError
		if httpclient.IsClientError(resp.StatusCode) {
			level = slog.LevelWarn
		}
		log.Log(ctx, level, "upload error",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, apperrors.Upload(
			fmt.Sprintf("error while uploading the image: status %d", resp.StatusCode),
			string(body), nil)
	}

	return body, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartBody encodes asset as the single "file" part of a form.
func multipartBody(asset *ResolvedAsset) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(asset.Filename)))
	h.Set("Content-Type", asset.ContentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, asset.Body); err != nil {
		return nil, "", fmt.Errorf("copy source: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func (u *Uploader) log(ctx context.Context) *slog.Logger {
	if u.logger != nil {
		return u.logger
	}
	return logger.FromContext(ctx)
}

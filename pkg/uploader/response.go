package uploader

import (
	"context"
	"log/slog"

	"github.com/bytedance/sonic"

	apperrors "github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/errors"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/logger"
)

// fileTypeInvalid is the error the server reports for media it rejects.
const fileTypeInvalid = "File type invalid"

// Kind tells which field of a Result is populated.
type Kind int

const (
	// KindURL means Result.URL holds the absolute URL of the uploaded file.
	KindURL Kind = iota + 1
	// KindRawJSON means Result.JSON holds the parsed response, unmodified.
	KindRawJSON
	// KindDescription means the server answered with an object of unknown
	// shape; Result.Text holds it as a display string and Result.JSON the value.
	KindDescription
)

func (k Kind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindRawJSON:
		return "raw_json"
	case KindDescription:
		return "description"
	default:
		return "unknown"
	}
}

// Result is the outcome of a successful upload.
type Result struct {
	Kind Kind
	URL  string
	JSON any
	Text string
}

// String renders the result for display.
func (r Result) String() string {
	switch r.Kind {
	case KindURL:
		return r.URL
	case KindDescription:
		return r.Text
	case KindRawJSON:
		s, err := sonic.ConfigStd.MarshalToString(r.JSON)
		if err != nil {
			return ""
		}
		return s
	default:
		return ""
	}
}

// interpret maps an upload response body to a Result or an error.
func (u *Uploader) interpret(ctx context.Context, body []byte, contentType string, returnRaw bool) (Result, error) {
	log := logger.WithContext(ctx, u.log(ctx))

	var data any
	if err := sonic.ConfigStd.Unmarshal(body, &data); err != nil {
		log.ErrorContext(ctx, "json decode error",
			slog.String("error", err.Error()),
			slog.String("body", string(body)),
		)
		return Result{}, apperrors.Upload("error while uploading the image: invalid json", string(body), err)
	}

	if returnRaw {
		return Result{Kind: KindRawJSON, JSON: data}, nil
	}

	switch v := data.(type) {
	case []any:
		if len(v) > 0 {
			if first, ok := v[0].(map[string]any); ok {
				if src, ok := first["src"].(string); ok {
					return Result{Kind: KindURL, URL: u.endpoint.HostRoot + src}, nil
				}
			}
			log.ErrorContext(ctx, "unexpected response list format", slog.String("body", string(body)))
			return Result{}, apperrors.Upload("error while uploading the image: unexpected response list format", string(body), nil)
		}
	case map[string]any:
		if msg, _ := v["error"].(string); msg == fileTypeInvalid {
			appErr := apperrors.UnsupportedType(contentType)
			appErr.Message = "this file is unsupported"
			return Result{}, appErr
		}
		text, err := sonic.ConfigStd.MarshalToString(v)
		if err != nil {
			return Result{}, apperrors.Upload("error while uploading the image", string(body), err)
		}
		return Result{Kind: KindDescription, JSON: v, Text: text}, nil
	}

	log.ErrorContext(ctx, "unexpected response shape", slog.String("body", string(body)))
	return Result{}, apperrors.Upload("error while uploading the image: unexpected response shape", string(body), nil)
}

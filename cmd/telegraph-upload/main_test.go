package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/errors"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/uploader"
)

type uploadCall struct {
	source any
	opts   uploader.Options
}

// stubUpload replaces the uploader for the duration of the test.
func stubUpload(t *testing.T, res uploader.Result, err error) *[]uploadCall {
	t.Helper()
	t.Setenv("TELEGRAPH_RETURN_RAW", "false")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("PROMETHEUS_PUSHGATEWAY_URL", "")

	var calls []uploadCall
	prev := uploadImage
	uploadImage = func(_ context.Context, source any, opts uploader.Options) (uploader.Result, error) {
		calls = append(calls, uploadCall{source: source, opts: opts})
		return res, err
	}
	t.Cleanup(func() { uploadImage = prev })
	return &calls
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		rawDefault bool
		want       cliOptions
		wantErr    bool
	}{
		{name: "source only", args: []string{"x.png"}, want: cliOptions{source: "x.png"}},
		{name: "raw flag", args: []string{"-raw", "x.png"}, want: cliOptions{raw: true, source: "x.png"}},
		{name: "double dash raw", args: []string{"--raw", "https://e.com/a.gif"}, want: cliOptions{raw: true, source: "https://e.com/a.gif"}},
		{name: "env default", args: []string{"x.png"}, rawDefault: true, want: cliOptions{raw: true, source: "x.png"}},
		{name: "flag overrides env", args: []string{"-raw=false", "x.png"}, rawDefault: true, want: cliOptions{source: "x.png"}},
		{name: "no args", args: nil, wantErr: true},
		{name: "flag without source", args: []string{"-raw"}, wantErr: true},
		{name: "two sources", args: []string{"a.png", "b.png"}, wantErr: true},
		{name: "unknown flag", args: []string{"-json", "x.png"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			got, err := parseFlags(tt.args, tt.rawDefault, &stderr)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, stderr.String(), "usage:")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun_RawFlagReachesUploader(t *testing.T) {
	calls := stubUpload(t, uploader.Result{Kind: uploader.KindRawJSON, JSON: []any{map[string]any{"src": "/file/x.png"}}}, nil)

	var stdout, stderr bytes.Buffer
	code := run([]string{"-raw", "x.png"}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	require.Len(t, *calls, 1)
	assert.Equal(t, "x.png", (*calls)[0].source)
	assert.True(t, (*calls)[0].opts.ReturnRaw)
	assert.Equal(t, uploader.DefaultUserAgent, (*calls)[0].opts.UserAgent)
	assert.Equal(t, "[{\"src\":\"/file/x.png\"}]\n", stdout.String())
}

func TestRun_PrintsURL(t *testing.T) {
	calls := stubUpload(t, uploader.Result{Kind: uploader.KindURL, URL: "http://telegra.ph/file/x.png"}, nil)

	var stdout, stderr bytes.Buffer
	code := run([]string{"x.png"}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.False(t, (*calls)[0].opts.ReturnRaw)
	assert.Equal(t, "http://telegra.ph/file/x.png\n", stdout.String())
}

func TestRun_UsageErrors(t *testing.T) {
	for _, args := range [][]string{nil, {"-raw"}, {"a.png", "b.png"}} {
		calls := stubUpload(t, uploader.Result{}, nil)

		var stdout, stderr bytes.Buffer
		assert.Equal(t, 2, run(args, &stdout, &stderr), "args %v", args)
		assert.Contains(t, stderr.String(), "usage:")
		assert.Empty(t, stdout.String())
		assert.Empty(t, *calls)
	}
}

func TestRun_Help(t *testing.T) {
	stubUpload(t, uploader.Result{}, nil)

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"-h"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "-raw")
}

func TestRun_UploadFailure(t *testing.T) {
	stubUpload(t, uploader.Result{}, apperrors.UnsupportedType("image/webp"))

	var stdout, stderr bytes.Buffer
	code := run([]string{"x.webp"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "upload failed")
	assert.Contains(t, stderr.String(), apperrors.CodeUnsupportedType)
}

func TestParseFlags_HelpIsNotAUsageError(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseFlags([]string{"-help"}, false, &stderr)
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

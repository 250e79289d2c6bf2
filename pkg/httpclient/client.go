package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"
)

// Config holds HTTP client configuration
type Config struct {
	// ConnectTimeout bounds dialing and the TLS handshake.
	ConnectTimeout time.Duration
	// ReadTimeout bounds every wait for data from the server: the wait for
	// the first response byte after the request is written, and each body read.
	ReadTimeout     time.Duration
	MaxConnsPerHost int
}

// Client wraps http.Client with a connect/read timeout pair. Every request
// is a single attempt.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport
	config     Config
}

// New creates a new HTTP client.
func New(cfg Config) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		transport:  transport,
		config:     cfg,
	}
}

// Do executes the HTTP request once. If the read timeout elapses, the
// returned error (or a later body read error) wraps ErrReadTimeout.
// The caller must close the response body.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	wd := &watchdog{timeout: c.config.ReadTimeout, cancel: cancel}

	trace := &httptrace.ClientTrace{
		WroteRequest:         func(httptrace.WroteRequestInfo) { wd.arm() },
		GotFirstResponseByte: wd.disarm,
	}
	req = req.WithContext(httptrace.WithClientTrace(ctx, trace))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		wd.disarm()
		cause := context.Cause(ctx)
		cancel(nil)
		if errors.Is(cause, ErrReadTimeout) {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), ErrReadTimeout)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	resp.Body = &watchedBody{ReadCloser: resp.Body, ctx: ctx, wd: wd, cancel: cancel}
	return resp, nil
}

// CloseIdleConnections releases pooled connections held by the client.
func (c *Client) CloseIdleConnections() {
	c.transport.CloseIdleConnections()
}

// watchdog cancels the request context with ErrReadTimeout when armed for
// longer than timeout. A zero timeout disables it.
type watchdog struct {
	timeout time.Duration
	cancel  context.CancelCauseFunc

	mu    sync.Mutex
	timer *time.Timer
}

func (w *watchdog) arm() {
	if w.timeout <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer == nil {
		w.timer = time.AfterFunc(w.timeout, func() { w.cancel(ErrReadTimeout) })
		return
	}
	w.timer.Reset(w.timeout)
}

func (w *watchdog) disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

type watchedBody struct {
	io.ReadCloser
	ctx    context.Context
	wd     *watchdog
	cancel context.CancelCauseFunc
}

func (b *watchedBody) Read(p []byte) (int, error) {
	b.wd.arm()
	n, err := b.ReadCloser.Read(p)
	b.wd.disarm()
	if err != nil && err != io.EOF && errors.Is(context.Cause(b.ctx), ErrReadTimeout) {
		return n, fmt.Errorf("read response body: %w", ErrReadTimeout)
	}
	return n, err
}

func (b *watchedBody) Close() error {
	b.wd.disarm()
	err := b.ReadCloser.Close()
	b.cancel(nil)
	return err
}

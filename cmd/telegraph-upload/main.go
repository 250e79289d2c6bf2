package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/TheMafiaBot/html-telegraph-poster-v2/internal/config"
	apperrors "github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/errors"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/logger"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/tracing"
	"github.com/TheMafiaBot/html-telegraph-poster-v2/pkg/uploader"
)

// uploadImage is replaced in tests.
var uploadImage = uploader.UploadImage

var errUsage = errors.New("expected exactly one file path or URL")

type cliOptions struct {
	raw    bool
	source string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}

	// Flags override the environment.
	opts, err := parseFlags(args, cfg.ReturnRaw, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	log := logger.New(stderr, cfg.Logger())

	// Cancel on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdown, err := tracing.Setup(ctx, cfg.Tracing())
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("tracer shutdown", slog.String("error", err.Error()))
		}
	}()

	if cfg.PushgatewayURL != "" {
		defer pushMetrics(cfg.PushgatewayURL, log)
	}

	ctx = logger.WithCorrelationID(ctx, uuid.NewString())
	ctx = logger.NewContext(ctx, log)

	uploadOpts := cfg.UploadOptions()
	uploadOpts.ReturnRaw = opts.raw

	res, err := uploadImage(ctx, opts.source, uploadOpts)
	if err != nil {
		logger.WithContext(ctx, log).Error("upload failed",
			slog.String("source", opts.source),
			slog.String("code", apperrors.CodeOf(err)),
			slog.String("detail", apperrors.DetailOf(err)),
			slog.String("error", err.Error()),
		)
		return 1
	}

	fmt.Fprintln(stdout, res.String())
	return 0
}

// parseFlags reads `[-raw] <file-path-or-url>`. Usage goes to stderr on error.
func parseFlags(args []string, rawDefault bool, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions

	fs := flag.NewFlagSet(config.ServiceName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.raw, "raw", rawDefault, "print the parsed response JSON instead of the media URL")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [-raw] <file-path-or-url>\n", config.ServiceName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, errUsage
	}
	opts.source = fs.Arg(0)
	return opts, nil
}

// pushMetrics sends the process metrics to a Prometheus Pushgateway.
func pushMetrics(url string, log *slog.Logger) {
	err := push.New(url, config.ServiceName).
		Gatherer(prometheus.DefaultGatherer).
		Push()
	if err != nil {
		log.Warn("failed to push metrics", slog.String("pushgateway", url), slog.String("error", err.Error()))
	}
}

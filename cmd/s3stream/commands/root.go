// Package commands implements the s3stream command line interface.
package commands

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/s3stream/s3types"
)

// app holds what the commands share once settings are loaded.
type app struct {
	cfgFile string
	viper   *viper.Viper

	settings *Settings
	logger   *slog.Logger
	client   *s3stream.Client
	fs       fs.Filesystem

	registry      *prometheus.Registry
	metricsServer *http.Server

	// api replaces the AWS client when set
	api s3api.S3API
}

// Option configures the command tree.
type Option func(*app)

// WithS3API makes every command talk to api instead of building an AWS client.
func WithS3API(api s3api.S3API) Option {
	return func(a *app) {
		a.api = api
	}
}

// WithFilesystem sets the filesystem used for --file paths.
func WithFilesystem(filesystem fs.Filesystem) Option {
	return func(a *app) {
		a.fs = filesystem
	}
}

// NewRootCmd builds the s3stream command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{
		viper: viper.New(),
		fs:    billy.NewOSFS("/"),
	}
	for _, opt := range opts {
		opt(a)
	}

	rootCmd := &cobra.Command{
		Use:   "s3stream",
		Short: "Stream data to and from S3 objects",
		Long: `s3stream copies data between local files or standard streams and S3
objects without holding whole objects in memory.

Uploads are sent as a multipart upload, one part per filled buffer.
Downloads are sequential ranged GETs.

Every flag can also be set with an S3STREAM_ environment variable
(dashes become underscores, e.g. S3STREAM_LOG_LEVEL=debug) or in a YAML
config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.shutdown(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/s3stream/config.yaml)")
	flags.String("region", "", "AWS region")
	flags.String("endpoint", "", "custom S3 endpoint URL")
	flags.Bool("path-style", false, "use path-style addressing")
	flags.Int("max-retries", 3, "maximum SDK attempts per request")
	flags.Duration("timeout", 0, "per-request HTTP timeout (0 disables)")
	flags.String("log-level", "info", "log level (debug|info|warn|error)")
	flags.String("log-format", "text", "log format (text|json)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address while running")

	rootCmd.AddCommand(newPutCmd(a))
	rootCmd.AddCommand(newGetCmd(a))
	rootCmd.AddCommand(newStatCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// setup loads settings and builds the logger, metrics and client.
func (a *app) setup(cmd *cobra.Command) error {
	if err := bindFlags(a.viper, cmd.Root().PersistentFlags()); err != nil {
		return err
	}

	settings, err := loadSettings(a.viper, a.cfgFile)
	if err != nil {
		return err
	}
	a.settings = settings
	a.logger = newLogger(cmd.ErrOrStderr(), settings)

	clientOpts := []s3types.Option{
		s3stream.WithLogger(a.logger),
		s3stream.WithMaxRetries(settings.MaxRetries),
	}

	if settings.MetricsAddr != "" {
		if err := a.startMetrics(settings.MetricsAddr); err != nil {
			return err
		}
		clientOpts = append(clientOpts, s3stream.WithMetrics(metrics.New(a.registry)))
	}

	if size, _ := settings.partSize(); size > 0 {
		clientOpts = append(clientOpts, s3stream.WithPartSize(size))
	}

	if a.api != nil {
		a.client = s3stream.NewWithClient(a.api, clientOpts...)
		return nil
	}

	clientOpts = append(clientOpts,
		s3stream.WithRegion(settings.Region),
		s3stream.WithEndpoint(settings.Endpoint),
		s3stream.WithForcePathStyle(settings.PathStyle),
		s3stream.WithTimeout(settings.Timeout),
	)
	if settings.AccessKeyID != "" {
		clientOpts = append(clientOpts,
			s3stream.WithStaticCredentials(settings.AccessKeyID, settings.SecretAccessKey, settings.SessionToken))
	}

	client, err := s3stream.New(clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	a.client = client
	return nil
}

func newLogger(w io.Writer, s *Settings) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.slogLevel()}
	if s.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// startMetrics serves the registry on addr until shutdown.
func (a *app) startMetrics(addr string) error {
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.metricsServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := a.metricsServer.Serve(listener); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()
	a.logger.Info("metrics server listening", "addr", listener.Addr().String())
	return nil
}

func (a *app) shutdown(ctx context.Context) error {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			return err
		}
	}
	if a.metricsServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return a.metricsServer.Shutdown(ctx)
}

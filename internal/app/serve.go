package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"horse.fit/camtranslate/internal/cli"
	"horse.fit/camtranslate/internal/httpapi"
	"horse.fit/camtranslate/internal/metrics"
	"horse.fit/camtranslate/internal/pipeline"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env")
	host := fs.String("host", "0.0.0.0", "Host interface to bind")
	port := fs.Int("port", 5000, "HTTP port")
	readTimeout := fs.Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *port <= 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	cfg, logger, err := loadConfigAndLogger(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		return 1
	}

	var m metrics.Metrics = metrics.Noop{}
	if cfg.MetricsAddr != "" {
		m = metrics.NewProm("camtranslate")
	}

	svc, err := newServices(cfg, afero.NewOsFs(), m, logger)
	if err != nil {
		logger.Error().Err(err).Msg("serve failed to initialize services")
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	queue := pipeline.NewQueue(svc.processor, svc.janitor, pipeline.QueueOptions{
		Workers:      cfg.Workers,
		Size:         cfg.QueueSize,
		CleanupDelay: cfg.CleanupDelay,
		Metrics:      m,
	}, logger.With().Str("component", "queue").Logger())
	// Jobs get their own context so a shutdown lets running work finish.
	queue.Start(context.Background())

	srv := httpapi.NewServer(httpapi.NewSession(), svc.store, queue, m, logger, httpapi.Options{
		Host:            *host,
		Port:            *port,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
		ServiceName:     cfg.ServiceName,
		UploadChunkSize: cfg.UploadChunkSize,
		MaxUploadBytes:  cfg.MaxUploadBytes,
	})

	logger.Info().
		Str("upload_dir", svc.store.Dir()).
		Str("record_dir", svc.archiver.Dir()).
		Str("target_lang", cfg.TargetLang).
		Str("provider", cfg.TranslationProvider).
		Str("cleanup_delay", cfg.CleanupDelay.String()).
		Str("max_upload", humanize.Bytes(uint64(cfg.MaxUploadBytes))).
		Msg("camtranslate configured")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Start(groupCtx)
	})
	if cfg.MetricsAddr != "" {
		group.Go(func() error {
			return serveMetrics(groupCtx, cfg.MetricsAddr, *shutdownTimeout)
		})
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listener started")
	}

	serveErr := group.Wait()

	if err := queue.Close(); err != nil {
		logger.Error().Err(err).Msg("processing queue stopped with error")
	}
	flushed := svc.janitor.Flush()
	logger.Info().
		Int64("requests_processed", srv.Session().Requests()).
		Int("artifacts_flushed", flushed).
		Dur("uptime", srv.Session().Uptime()).
		Msg("camtranslate stopped")

	if serveErr != nil {
		logger.Error().Err(serveErr).Str("host", *host).Int("port", *port).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", serveErr)
		return 1
	}
	return 0
}

func serveMetrics(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

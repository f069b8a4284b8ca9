package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"horse.fit/camtranslate/internal/artifact"
	"horse.fit/camtranslate/internal/metrics"
)

const (
	defaultChunkSize      = 8192
	defaultMaxUploadBytes = 16 << 20
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	ServiceName     string
	UploadChunkSize int
	MaxUploadBytes  int64
}

// UploadStore persists received images.
type UploadStore interface {
	Save(data []byte, clientIP string) (artifact.Artifact, error)
	Remove(path string) error
}

// JobQueue accepts uploads for background processing without blocking.
type JobQueue interface {
	Submit(job artifact.Artifact) error
}

type Server struct {
	session *Session
	store   UploadStore
	queue   JobQueue
	metrics metrics.Metrics
	logger  zerolog.Logger
	opts    Options
	echo    *echo.Echo
}

func NewServer(session *Session, store UploadStore, queue JobQueue, m metrics.Metrics, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 5000
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	serviceName := strings.TrimSpace(opts.ServiceName)
	if serviceName == "" {
		serviceName = "ESP32-CAM Translator Server"
	}
	chunkSize := opts.UploadChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	if session == nil {
		session = NewSession()
	}
	if m == nil {
		m = metrics.Noop{}
	}

	s := &Server{
		session: session,
		store:   store,
		queue:   queue,
		metrics: m,
		logger:  logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			ServiceName:     serviceName,
			UploadChunkSize: chunkSize,
			MaxUploadBytes:  maxUpload,
		},
	}
	s.echo = s.newEcho()
	return s
}

func (s *Server) Session() *Session {
	return s.session
}

// Handler exposes the routed echo instance.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
}

func (s *Server) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	// Counted before routing so unknown paths count too.
	e.Pre(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s.session.Inc()
			return next(c)
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// The CORS middleware only answers requests carrying an Origin header.
			c.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
			return next(c)
		}
	})
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Content-Length", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/status", s.handleStatus)
	e.GET("/stats", s.handleStats)
	e.POST("/upload", s.handleUpload)

	return e
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.store == nil || s.queue == nil {
		return fmt.Errorf("server is not initialized")
	}

	addr := s.Addr()
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.echo,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := s.echo.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Str("service", s.opts.ServiceName).Msg("upload server started")

	if err := s.echo.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Int64("requests_processed", s.session.Requests()).Msg("upload server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := ""
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if v, ok := he.Message.(string); ok {
			message = strings.TrimSpace(v)
		}
	} else if err != nil {
		message = "Server error: " + err.Error()
	}

	// Only the routes themselves are public; a known path with the wrong verb is
	// indistinguishable from an unknown one.
	if status == http.StatusMethodNotAllowed {
		status = http.StatusNotFound
		message = ""
		c.Response().Header().Del(echo.HeaderAllow)
	}
	if message == "" {
		message = http.StatusText(status)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	if status >= 500 {
		_ = errorWithStatus(c, status, message)
		return
	}
	_ = fail(c, status, message, nil)
}

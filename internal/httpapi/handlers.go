package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"

	"horse.fit/camtranslate/internal/globaltime"
	"horse.fit/camtranslate/internal/pipeline"
)

const (
	messageNoImage    = "No image data received"
	messageProcessing = "Imagen recibida y en procesamiento"
	statsTimeLayout   = "2006-01-02 15:04:05"
)

type statusResponse struct {
	Status            string  `json:"status"`
	Service           string  `json:"service"`
	Uptime            int64   `json:"uptime"`
	Timestamp         float64 `json:"timestamp"`
	RequestsProcessed int64   `json:"requests_processed"`
}

type statsResponse struct {
	ServerUptime  int64  `json:"server_uptime"`
	TotalRequests int64  `json:"total_requests"`
	CurrentTime   string `json:"current_time"`
}

type uploadResponse struct {
	Status    string `json:"status"`
	Filename  string `json:"filename"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

func (s *Server) handleStatus(c echo.Context) error {
	now := globaltime.Now()
	return c.JSONPretty(http.StatusOK, statusResponse{
		Status:            "online",
		Service:           s.opts.ServiceName,
		Uptime:            s.session.UptimeSeconds(),
		Timestamp:         float64(now.UnixNano()) / float64(1e9),
		RequestsProcessed: s.session.Requests(),
	}, "  ")
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSONPretty(http.StatusOK, statsResponse{
		ServerUptime:  s.session.UptimeSeconds(),
		TotalRequests: s.session.Requests(),
		CurrentTime:   globaltime.Now().Format(statsTimeLayout),
	}, "  ")
}

func (s *Server) handleUpload(c echo.Context) error {
	req := c.Request()
	clientIP := c.RealIP()
	declared := req.ContentLength

	if declared <= 0 {
		s.metrics.IncUploads("empty")
		return fail(c, http.StatusBadRequest, messageNoImage, nil)
	}
	if declared > s.opts.MaxUploadBytes {
		s.metrics.IncUploads("too_large")
		return fail(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Image too large: %s exceeds the %s limit", humanize.Bytes(uint64(declared)), humanize.Bytes(uint64(s.opts.MaxUploadBytes))),
			nil)
	}

	s.logger.Info().
		Str("client_ip", clientIP).
		Int64("declared_bytes", declared).
		Str("size", humanize.Bytes(uint64(declared))).
		Msg("receiving image")

	data, readErr := readChunks(req.Body, declared, s.opts.UploadChunkSize)
	if int64(len(data)) != declared {
		if readErr != nil {
			s.logger.Warn().Err(readErr).Str("client_ip", clientIP).Msg("upload body read failed")
		}
		s.metrics.IncUploads("incomplete")
		return fail(c, http.StatusBadRequest, fmt.Sprintf("Incomplete data: received %d of %d bytes", len(data), declared), nil)
	}

	saved, err := s.store.Save(data, clientIP)
	if err != nil {
		s.logger.Error().Err(err).Str("client_ip", clientIP).Msg("failed to store upload")
		s.metrics.IncUploads("error")
		return internalError(c, "Server error: "+err.Error())
	}

	if err := s.queue.Submit(saved); err != nil {
		if removeErr := s.store.Remove(saved.Path); removeErr != nil {
			s.logger.Warn().Err(removeErr).Str("filename", saved.Name).Msg("failed to remove rejected upload")
		}
		switch {
		case errors.Is(err, pipeline.ErrQueueFull):
			s.metrics.IncUploads("queue_full")
			s.logger.Warn().Str("filename", saved.Name).Msg("processing queue full, upload rejected")
			return errorWithStatus(c, http.StatusServiceUnavailable, "Server busy: processing queue is full")
		case errors.Is(err, pipeline.ErrQueueClosed):
			s.metrics.IncUploads("shutting_down")
			return errorWithStatus(c, http.StatusServiceUnavailable, "Server is shutting down")
		default:
			s.metrics.IncUploads("error")
			return internalError(c, "Server error: "+err.Error())
		}
	}

	s.metrics.IncUploads("accepted")
	s.metrics.ObserveUploadBytes(saved.Size)
	s.logger.Info().
		Str("filename", saved.Name).
		Str("client_ip", clientIP).
		Str("content_type", saved.ContentType).
		Str("size", humanize.Bytes(uint64(saved.Size))).
		Msg("image saved, processing queued")

	return c.JSON(http.StatusAccepted, uploadResponse{
		Status:    "processing",
		Filename:  saved.Name,
		Message:   messageProcessing,
		Timestamp: saved.CreatedAt.Unix(),
	})
}

// readChunks reads up to declared bytes in chunkSize pieces and stops early when the
// body runs dry. The error is whatever ended the read, if anything other than EOF.
func readChunks(body io.Reader, declared int64, chunkSize int) ([]byte, error) {
	data := make([]byte, 0, declared)
	chunk := make([]byte, chunkSize)
	remaining := declared
	for remaining > 0 {
		size := int64(chunkSize)
		if remaining < size {
			size = remaining
		}
		n, err := io.ReadFull(body, chunk[:size])
		data = append(data, chunk[:n]...)
		remaining -= int64(n)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return data, nil
		}
		if err != nil {
			return data, err
		}
	}
	return data, nil
}

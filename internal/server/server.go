// Package server exposes the digitizer over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"signature-digitizer/internal/config"
	"signature-digitizer/internal/core"
	imgio "signature-digitizer/internal/io"
	"signature-digitizer/internal/metrics"
)

// DownloadName is the attachment name of every digitized signature
const DownloadName = "digitized_signature.png"

// Server handles digitize requests
type Server struct {
	cfg       config.ServerConfig
	digitizer *core.Digitizer
	loader    *imgio.ImageLoader
	spool     *Spool
	logger    logrus.FieldLogger
	engine    *gin.Engine
}

// New wires the HTTP routes. The upload directory is created if missing.
func New(cfg config.ServerConfig, digitizer *core.Digitizer, logger logrus.FieldLogger) (*Server, error) {
	spool, err := NewSpool(cfg.UploadDir, cfg.UploadTTL, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		digitizer: digitizer,
		loader:    imgio.NewImageLoader(logger),
		spool:     spool,
		logger:    logger,
	}

	engine := gin.New()
	engine.MaxMultipartMemory = cfg.MaxUploadBytes
	engine.Use(gin.Recovery(), s.requestLogger(), cors(cfg.AllowedOrigins))
	engine.GET("/healthz", s.handleHealth)
	engine.GET("/api/pipeline", s.handlePipeline)
	engine.POST("/api/digitize", s.handleDigitize)
	s.engine = engine

	return s, nil
}

// Handler returns the routed engine
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	if err := s.spool.StartSweeper(s.cfg.SweepSchedule); err != nil {
		return err
	}
	defer s.spool.StopSweeper()

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.WithField("addr", s.cfg.Addr).Info("Listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"colors": core.ProfileNames(),
	})
}

func (s *Server) handlePipeline(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stages": s.digitizer.Stages()})
}

type digitized struct {
	png    []byte
	width  int
	height int
	stats  metrics.InkStats
	err    error
}

func (s *Server) handleDigitize(c *gin.Context) {
	if c.Request.ContentLength > s.cfg.MaxUploadBytes {
		s.tooLarge(c)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			s.tooLarge(c)
		case c.Request.MultipartForm != nil && len(c.Request.MultipartForm.Value["file"]) > 0:
			// browsers send an empty filename when nothing was chosen
			s.writeError(c, fmt.Errorf("%w: No selected file", core.ErrInvalidInput))
		default:
			s.writeError(c, fmt.Errorf("%w: No file part", core.ErrInvalidInput))
		}
		return
	}
	if fh.Filename == "" {
		s.writeError(c, fmt.Errorf("%w: No selected file", core.ErrInvalidInput))
		return
	}
	if fh.Size == 0 {
		s.writeError(c, fmt.Errorf("%w: uploaded file is empty", core.ErrInvalidInput))
		return
	}

	profile, err := core.ParseColorProfile(c.DefaultPostForm("color", s.digitizer.DefaultColor().String()))
	if err != nil {
		s.writeError(c, err)
		return
	}

	path, err := s.spool.Save(fh)
	if err != nil {
		s.writeError(c, fmt.Errorf("spooling upload: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	done := make(chan digitized, 1)
	go func() {
		defer s.spool.Remove(path)
		done <- s.process(path, profile)
	}()

	var res digitized
	select {
	case res = <-done:
	case <-ctx.Done():
		s.logger.WithField("timeout", s.cfg.RequestTimeout).Warn("Digitize request timed out")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"error": "processing timed out",
			"kind":  core.KindInternal,
		})
		return
	}
	if res.err != nil {
		s.writeError(c, res.err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, DownloadName))
	c.Header("X-Ink-Color", profile.String())
	c.Header("X-Image-Width", strconv.Itoa(res.width))
	c.Header("X-Image-Height", strconv.Itoa(res.height))
	c.Header("X-Ink-Pixels", strconv.Itoa(res.stats.InkPixels))
	c.Data(http.StatusOK, "image/png", res.png)
}

// process runs decode, digitize and encode for one spooled upload
func (s *Server) process(path string, profile core.ColorProfile) digitized {
	input, err := s.loader.LoadImage(path)
	defer input.Close()
	if err != nil {
		return digitized{err: err}
	}

	output, err := s.digitizer.Digitize(input, profile)
	defer output.Close()
	if err != nil {
		return digitized{err: err}
	}

	stats, err := metrics.Measure(output)
	if err != nil {
		return digitized{err: err}
	}

	data, err := s.loader.EncodePNG(output)
	if err != nil {
		return digitized{err: err}
	}

	return digitized{
		png:    data,
		width:  output.Cols(),
		height: output.Rows(),
		stats:  stats,
	}
}

func (s *Server) tooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadBytes),
		"kind":  core.KindInvalidInput,
	})
}

func (s *Server) writeError(c *gin.Context, err error) {
	kind := core.Kind(err)
	status := http.StatusInternalServerError
	msg := err.Error()
	if core.IsClientError(err) {
		status = http.StatusBadRequest
	} else if kind == core.KindInternal {
		msg = "internal server error"
	}

	s.logger.WithError(err).WithFields(logrus.Fields{
		"kind":   kind,
		"status": status,
	}).Warn("Digitize request failed")

	c.AbortWithStatusJSON(status, gin.H{"error": msg, "kind": kind})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
			"client":   c.ClientIP(),
		}).Info("Request handled")
	}
}

func cors(origins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Ink-Color, X-Image-Width, X-Image-Height, X-Ink-Pixels")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

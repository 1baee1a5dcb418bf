package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const spoolPrefix = "upload-"

// Spool keeps uploaded files on disk for the duration of one request.
// Files left behind by crashed requests are removed by Sweep.
type Spool struct {
	dir    string
	ttl    time.Duration
	logger logrus.FieldLogger
	cron   *cron.Cron
}

// NewSpool creates dir if needed
func NewSpool(dir string, ttl time.Duration, logger logrus.FieldLogger) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &Spool{dir: dir, ttl: ttl, logger: logger}, nil
}

// Save copies an uploaded file into the spool and returns its path. The
// client supplied name only contributes its extension.
func (s *Spool) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(filepath.Base(fh.Filename)))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}

	dst, err := os.CreateTemp(s.dir, spoolPrefix+"*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

// Remove deletes a spooled file, logging failures
func (s *Spool) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.WithError(err).WithField("path", path).Warn("Failed to remove spooled upload")
	}
}

// Sweep deletes spooled files last modified before now-ttl and returns
// how many were removed.
func (s *Spool) Sweep(now time.Time) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to list upload dir")
		return 0
	}

	removed := 0
	cutoff := now.Add(-s.ttl)
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), spoolPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil {
			s.logger.WithError(err).WithField("path", path).Warn("Failed to sweep upload")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Swept stale uploads")
	}
	return removed
}

// StartSweeper runs Sweep on schedule until StopSweeper
func (s *Spool) StartSweeper(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { s.Sweep(time.Now()) }); err != nil {
		return fmt.Errorf("sweep schedule: %w", err)
	}
	c.Start()
	s.cron = c
	s.logger.WithField("schedule", schedule).Debug("Upload sweeper started")
	return nil
}

// StopSweeper stops the schedule and waits for a running sweep
func (s *Spool) StopSweeper() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}

// Package logging builds the process logger
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// New initializes a logger at level. Text output carries full timestamps;
// json output uses a compact timestamp layout.
func New(out io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	logger.WithField("level", lvl.String()).Debug("Debug logging enabled")
	return logger, nil
}

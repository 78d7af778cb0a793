package config

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Log formatter options
const (
	json   = "json"
	logfmt = "logfmt"
	tty    = "tty"
)

// NewLogger returns a logger writing to out with the given level and format.
func NewLogger(out io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	formatter, err := LogFormatter(format)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(formatter)
	l.SetLevel(lvl)
	return l, nil
}

// LogFormatter returns the logrus formatter for a format name.
func LogFormatter(format string) (logrus.Formatter, error) {
	switch format {
	case json:
		return &logrus.JSONFormatter{}, nil
	case logfmt:
		return &logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		}, nil
	case tty:
		return &logrus.TextFormatter{}, nil
	default:
		return nil, fmt.Errorf("invalid log format %q (want one of %s, %s, %s)", format, json, logfmt, tty)
	}
}

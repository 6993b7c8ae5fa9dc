// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options ...
type Options struct {
	Level string
	JSON  bool

	// File, when set, receives a copy of every entry and is rotated
	File       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultOptions returns info level text logging to stderr
func DefaultOptions() Options {
	return Options{
		Level:      "info",
		MaxSize:    10,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
	}
}

// New builds a logger from opts. The returned closer releases the log file
// and is never nil.
func New(opts Options, stderr io.Writer) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, nopCloser{}, err
		}
		level = parsed
	}
	log.SetLevel(level)

	if opts.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if stderr == nil {
		stderr = os.Stderr
	}
	if opts.File == "" {
		log.SetOutput(stderr)
		return log, nopCloser{}, nil
	}

	rotated := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   opts.Compress,
	}
	log.SetOutput(io.MultiWriter(stderr, rotated))
	return log, rotated, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

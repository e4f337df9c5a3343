// Package logging builds the application logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Level   string // logrus level name, "info" if empty
	File    string // rotating log file, disabled if empty
	Debug   bool   // forces debug level and caller reporting
	NoColor bool
	Output  io.Writer // console writer, os.Stderr if nil
}

// New returns a logger writing to the console and, if configured, to a rotating file.
func New(opts Options) (*logrus.Logger, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	if opts.Debug {
		level = logrus.DebugLevel
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetReportCaller(opts.Debug)
	logger.SetFormatter(&formatter.Formatter{
		NoColors:              opts.NoColor || opts.File != "",
		TimestampFormat:       "2006-01-02 15:04:05",
		CallerFirst:           true,
		CustomCallerFormatter: callerFormatter,
	})

	console := opts.Output
	if console == nil {
		console = os.Stderr
	}
	writers := []io.Writer{console}
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100, // megabytes
			MaxAge:     7,
			MaxBackups: 3,
		})
	}
	logger.SetOutput(io.MultiWriter(writers...))

	return logger, nil
}

func callerFormatter(f *runtime.Frame) string {
	s := strings.Split(f.Function, ".")
	return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, s[len(s)-1])
}

package logger

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	"github.com/aman-churiwal/media-quota/internal/config"
	graylog "github.com/gemnasium/logrus-graylog-hook/v3"
	"github.com/sirupsen/logrus"
)

type Channel int

const (
	Stdout Channel = iota
	Graylog
	Both
)

// Builds the process logger from config. Output goes to stdout, to Graylog,
// or to both depending on the channel.
func New(cfg config.LoggingConfig) (*logrus.Logger, error) {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg config.LoggingConfig, w io.Writer) (*logrus.Logger, error) {
	channel, err := ParseChannel(cfg.Channel)
	if err != nil {
		return nil, err
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetReportCaller(true)

	switch strings.ToLower(cfg.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			CallerPrettyfier: callerPrettyfier,
		})
	default:
		log.SetFormatter(&logrus.TextFormatter{
			TimestampFormat:  "2006-01-02 15:04:05",
			FullTimestamp:    true,
			CallerPrettyfier: callerPrettyfier,
		})
	}

	switch channel {
	case Stdout:
		log.SetOutput(w)
	case Graylog:
		log.AddHook(graylog.NewGraylogHook(cfg.GraylogAddr, map[string]interface{}{"service": "media-quota"}))
		log.SetOutput(io.Discard)
	case Both:
		log.AddHook(graylog.NewGraylogHook(cfg.GraylogAddr, map[string]interface{}{"service": "media-quota"}))
		log.SetOutput(w)
	}

	return log, nil
}

func ParseChannel(channel string) (Channel, error) {
	switch strings.ToLower(channel) {
	case "", "stdout":
		return Stdout, nil
	case "graylog":
		return Graylog, nil
	case "both":
		return Both, nil
	}
	var ch Channel
	return ch, fmt.Errorf("not a valid log channel: %s", channel)
}

func callerPrettyfier(frame *runtime.Frame) (string, string) {
	return "", fmt.Sprintf("%s:%d", path.Base(frame.File), frame.Line)
}

// Returns a logger that writes nowhere, for tests and optional dependencies
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

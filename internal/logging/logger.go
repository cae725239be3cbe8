package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithTrigger returns a logger scoped to one trigger resolution.
func WithTrigger(trigger string) *slog.Logger {
	return slog.With(
		"component", "selen",
		"trigger", trigger,
	)
}

// NewUpstreamLogger returns a logrus logger for outbound API clients,
// JSON in production and text otherwise.
func NewUpstreamLogger(service string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if strings.ToLower(os.Getenv("ENVIRONMENT")) == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logger.SetLevel(logrus.DebugLevel)
	}
	logger.AddHook(serviceHook(service))
	return logger
}

// serviceHook stamps every entry with the upstream service name
type serviceHook string

func (h serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h serviceHook) Fire(entry *logrus.Entry) error {
	entry.Data["upstream"] = string(h)
	return nil
}

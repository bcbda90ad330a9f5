// Package vtlog constructs the structured loggers used throughout the
// launcher. Every component takes a *logrus.Entry at construction time
// rather than reaching for a package-level global.
package vtlog

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/vibetool/vibetool/internal/vtconfig"
)

// New returns a *logrus.Entry tagged with component, configured per cfg.
// Format is text when attached to a terminal (or LogFormat=="text"), JSON
// otherwise (or when LogFormat=="json").
func New(cfg *vtconfig.Config, component string) *logrus.Entry {
	logger := logrus.New()
	logger.Out = os.Stderr

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch cfg.LogFormat {
	case "json":
		logger.Formatter = &logrus.JSONFormatter{}
	case "text":
		logger.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	default:
		if isatty.IsTerminal(os.Stderr.Fd()) {
			logger.Formatter = &logrus.TextFormatter{FullTimestamp: true}
		} else {
			logger.Formatter = &logrus.JSONFormatter{}
		}
	}

	return logger.WithField("component", component)
}

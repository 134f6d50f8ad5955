package main

import (
	"io"

	"github.com/sirupsen/logrus"
)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.WarnLevel)
	return l
}

// setLogLevel applies --verbose / --log-level. An unknown level keeps warn.
func (a *app) setLogLevel(level string, verbose bool) {
	if verbose {
		a.log.SetLevel(logrus.DebugLevel)
		return
	}
	if level == "" {
		return
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		a.log.Warnf("invalid log level %s, defaulting to warn", level)
		return
	}
	a.log.SetLevel(lvl)
}

// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Log is shared by the server and the CLI.
var Log = log.New()

// ParseLevel maps LOG_LEVEL values onto logrus levels.
// Trace and panic levels are not used.
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel, nil
	case "", "info":
		return log.InfoLevel, nil
	case "warning", "warn":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	case "fatal":
		return log.FatalLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("bad log level %q", level)
	}
}

// Setup applies level and format to Log. An unknown level keeps info and is reported.
func Setup(level string, out io.Writer, json bool) {
	if out != nil {
		Log.SetOutput(out)
	}
	if json {
		Log.SetFormatter(&log.JSONFormatter{})
	} else {
		Log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	lvl, err := ParseLevel(level)
	Log.SetLevel(lvl)
	if err != nil {
		Log.Warnf("%v, using info", err)
	}
}

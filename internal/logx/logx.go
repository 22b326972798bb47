// Package logx is the connector's application-wide structured logger.
package logx

import (
	"os"
	"strings"

	chlog "github.com/charmbracelet/log"
)

// Logger is the connector-wide structured logger.
var Logger *chlog.Logger

const (
	debugLevel = "debug"
	infoLevel  = "info"
	warnLevel  = "warn"
	errorLevel = "error"
)

// InitLogger initializes the global logger with level from
// KMIRROR_LOG_LEVEL. Valid levels: debug, info, warn, error.
func InitLogger() {
	if Logger != nil {
		return
	}
	l := chlog.New(os.Stdout)
	l.SetTimeFormat("2006-01-02 15:04:05.000")
	l.SetReportTimestamp(true)
	l.SetLevel(levelFromString(os.Getenv("KMIRROR_LOG_LEVEL")))
	Logger = l
}

// SetLogLevel changes the logger's level at runtime; unrecognized values
// are ignored.
func SetLogLevel(level string) {
	if Logger == nil {
		InitLogger()
	}
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case debugLevel, infoLevel, warnLevel, errorLevel:
		Logger.SetLevel(levelFromString(level))
	}
}

func levelFromString(level string) chlog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case debugLevel:
		return chlog.DebugLevel
	case warnLevel:
		return chlog.WarnLevel
	case errorLevel:
		return chlog.ErrorLevel
	default:
		return chlog.InfoLevel
	}
}

// With returns a child logger carrying the given source/target pair as
// structured fields on every record, the way a connector's own jobs should
// identify which replication pair they belong to in a multi-pair harness.
func With(sourceAlias, targetAlias string) *chlog.Logger {
	if Logger == nil {
		InitLogger()
	}
	return Logger.With("source", sourceAlias, "target", targetAlias)
}

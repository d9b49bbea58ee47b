package storage

import (
	"fmt"
	"log/slog"
	"strings"
)

// BadgerLogger routes badger's printf-style logging into slog.
type BadgerLogger struct {
	logger *slog.Logger
}

func NewBadgerLogger(logger *slog.Logger) *BadgerLogger {
	return &BadgerLogger{logger: logger.With("component", "badger")}
}

func (l *BadgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(message(format, args))
}

func (l *BadgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(message(format, args))
}

func (l *BadgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(message(format, args))
}

func (l *BadgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(message(format, args))
}

func message(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}

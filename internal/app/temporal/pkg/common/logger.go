package common

import (
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

// zapLogger adapts zap to the Temporal SDK logger
type zapLogger struct {
	logger *zap.SugaredLogger
}

var (
	_ log.Logger     = (*zapLogger)(nil)
	_ log.WithLogger = (*zapLogger)(nil)
)

// NewTemporalLogger wraps logger for client and worker options
func NewTemporalLogger(logger *zap.Logger) log.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapLogger{logger: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (l *zapLogger) Debug(msg string, keyvals ...interface{}) {
	l.logger.Debugw(msg, keyvals...)
}

func (l *zapLogger) Info(msg string, keyvals ...interface{}) {
	l.logger.Infow(msg, keyvals...)
}

func (l *zapLogger) Warn(msg string, keyvals ...interface{}) {
	l.logger.Warnw(msg, keyvals...)
}

func (l *zapLogger) Error(msg string, keyvals ...interface{}) {
	l.logger.Errorw(msg, keyvals...)
}

// With returns a logger carrying keyvals on every line
func (l *zapLogger) With(keyvals ...interface{}) log.Logger {
	return &zapLogger{logger: l.logger.With(keyvals...)}
}

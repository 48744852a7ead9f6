package log

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Info takes a pointer subLogger struct and string and logs at info level
func Info(sl *SubLogger, data string) {
	stage(sl, zapcore.InfoLevel, func() string { return data })
}

// Infoln takes a pointer subLogger struct and interface and logs at info level
func Infoln(sl *SubLogger, v ...interface{}) {
	stage(sl, zapcore.InfoLevel, func() string { return fmt.Sprint(v...) })
}

// Infof takes a pointer subLogger struct, string and interface formats and
// logs at info level
func Infof(sl *SubLogger, data string, v ...interface{}) {
	stage(sl, zapcore.InfoLevel, func() string { return fmt.Sprintf(data, v...) })
}

// Debug takes a pointer subLogger struct and string and logs at debug level
func Debug(sl *SubLogger, data string) {
	stage(sl, zapcore.DebugLevel, func() string { return data })
}

// Debugln takes a pointer subLogger struct and interface and logs at debug
// level
func Debugln(sl *SubLogger, v ...interface{}) {
	stage(sl, zapcore.DebugLevel, func() string { return fmt.Sprint(v...) })
}

// Debugf takes a pointer subLogger struct, string and interface formats and
// logs at debug level
func Debugf(sl *SubLogger, data string, v ...interface{}) {
	stage(sl, zapcore.DebugLevel, func() string { return fmt.Sprintf(data, v...) })
}

// Warn takes a pointer subLogger struct and string and logs at warn level
func Warn(sl *SubLogger, data string) {
	stage(sl, zapcore.WarnLevel, func() string { return data })
}

// Warnln takes a pointer subLogger struct and interface and logs at warn level
func Warnln(sl *SubLogger, v ...interface{}) {
	stage(sl, zapcore.WarnLevel, func() string { return fmt.Sprint(v...) })
}

// Warnf takes a pointer subLogger struct, string and interface formats and
// logs at warn level
func Warnf(sl *SubLogger, data string, v ...interface{}) {
	stage(sl, zapcore.WarnLevel, func() string { return fmt.Sprintf(data, v...) })
}

// Error takes a pointer subLogger struct and string and logs at error level
func Error(sl *SubLogger, data string) {
	stage(sl, zapcore.ErrorLevel, func() string { return data })
}

// Errorln takes a pointer subLogger struct and interface and logs at error
// level
func Errorln(sl *SubLogger, v ...interface{}) {
	stage(sl, zapcore.ErrorLevel, func() string { return fmt.Sprint(v...) })
}

// Errorf takes a pointer subLogger struct, string and interface formats and
// logs at error level
func Errorf(sl *SubLogger, data string, v ...interface{}) {
	stage(sl, zapcore.ErrorLevel, func() string { return fmt.Sprintf(data, v...) })
}

// stage checks the level is enabled before the message is built so disabled
// levels cost nothing
func stage(sl *SubLogger, level zapcore.Level, msg func() string) {
	if sl == nil {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	if !sl.levels.enabled(level) || sl.logger == nil {
		return
	}
	switch level {
	case zapcore.DebugLevel:
		sl.logger.Debug(msg())
	case zapcore.InfoLevel:
		sl.logger.Info(msg())
	case zapcore.WarnLevel:
		sl.logger.Warn(msg())
	default:
		sl.logger.Error(msg())
	}
}

func (l Levels) enabled(level zapcore.Level) bool {
	switch level {
	case zapcore.DebugLevel:
		return l.Debug
	case zapcore.InfoLevel:
		return l.Info
	case zapcore.WarnLevel:
		return l.Warn
	case zapcore.ErrorLevel:
		return l.Error
	}
	return false
}

// Sync flushes any buffered log entries
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}

// Package logger provides leveled logging for the edition pipeline.
// The json format emits one object per line for log shippers; text keeps
// a human-readable prefix style for local runs.
package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	default:
		return "ERROR"
	}
}

// Logger provides leveled logging in either text or json format.
type Logger struct {
	level  Level
	json   bool
	logger *log.Logger
}

var defaultLogger *Logger

// Init initializes the default logger with the specified level and format.
func Init(level string, format string) {
	var l Level
	switch strings.ToLower(level) {
	case "debug":
		l = DebugLevel
	case "info":
		l = InfoLevel
	case "warn":
		l = WarnLevel
	case "error":
		l = ErrorLevel
	default:
		l = InfoLevel
	}

	jsonFormat := strings.ToLower(format) != "text"
	flags := 0
	if !jsonFormat {
		flags = log.LstdFlags | log.Lmicroseconds | log.Lshortfile
	}

	defaultLogger = &Logger{
		level:  l,
		json:   jsonFormat,
		logger: log.New(os.Stderr, "", flags),
	}
}

func emit(level Level, format string, args ...interface{}) {
	if defaultLogger == nil || defaultLogger.level > level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if defaultLogger.json {
		line, err := json.Marshal(map[string]string{
			"ts":    time.Now().UTC().Format(time.RFC3339Nano),
			"level": level.String(),
			"msg":   msg,
		})
		if err != nil {
			line = []byte(fmt.Sprintf(`{"level":%q,"msg":"log marshal failed"}`, level.String()))
		}
		_ = defaultLogger.logger.Output(3, string(line))
		return
	}
	_ = defaultLogger.logger.Output(3, "["+level.String()+"] "+msg)
}

func Debug(format string, args ...interface{}) {
	emit(DebugLevel, format, args...)
}

func Info(format string, args ...interface{}) {
	emit(InfoLevel, format, args...)
}

func Warn(format string, args ...interface{}) {
	emit(WarnLevel, format, args...)
}

func Error(format string, args ...interface{}) {
	emit(ErrorLevel, format, args...)
}

func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	if defaultLogger != nil {
		_ = defaultLogger.logger.Output(2, msg)
	}
	os.Exit(1)
}

// Package logger provides leveled logging in text or JSON-lines form.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
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

var levelNames = map[Level]string{
	DebugLevel: "DEBUG",
	InfoLevel:  "INFO",
	WarnLevel:  "WARN",
	ErrorLevel: "ERROR",
}

// ParseLevel maps a config string to a Level, defaulting to InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger provides leveled logging.
type Logger struct {
	mu     sync.Mutex
	level  Level
	json   bool
	out    io.Writer
	logger *log.Logger
}

var defaultLogger *Logger

// Init initializes the default logger with the specified level and format.
func Init(level string, format string) {
	defaultLogger = newLogger(os.Stderr, ParseLevel(level), strings.ToLower(format) == "json")
}

// SetOutput redirects the default logger, initializing it at info level if needed.
func SetOutput(w io.Writer) {
	if defaultLogger == nil {
		defaultLogger = newLogger(w, InfoLevel, false)
		return
	}
	defaultLogger = newLogger(w, defaultLogger.level, defaultLogger.json)
}

// Writer returns the destination of the default logger, for access logs.
func Writer() io.Writer {
	if defaultLogger == nil {
		return os.Stderr
	}
	return defaultLogger.out
}

func newLogger(w io.Writer, level Level, asJSON bool) *Logger {
	flags := log.LstdFlags | log.Lmicroseconds | log.Lshortfile
	if asJSON {
		flags = 0
	}
	return &Logger{
		level:  level,
		json:   asJSON,
		out:    w,
		logger: log.New(w, "", flags),
	}
}

type entry struct {
	Time  string `json:"time"`
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

func (l *Logger) emit(level Level, format string, args ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.json {
		line, err := json.Marshal(entry{
			Time:  time.Now().UTC().Format(time.RFC3339Nano),
			Level: strings.ToLower(levelNames[level]),
			Msg:   msg,
		})
		if err == nil {
			_ = l.logger.Output(3, string(line))
			return
		}
	}
	_ = l.logger.Output(3, "["+levelNames[level]+"] "+msg)
}

func Debug(format string, args ...interface{}) {
	defaultLogger.emit(DebugLevel, format, args...)
}

func Info(format string, args ...interface{}) {
	defaultLogger.emit(InfoLevel, format, args...)
}

func Warn(format string, args ...interface{}) {
	defaultLogger.emit(WarnLevel, format, args...)
}

func Error(format string, args ...interface{}) {
	defaultLogger.emit(ErrorLevel, format, args...)
}

func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	if defaultLogger != nil {
		_ = defaultLogger.logger.Output(2, msg)
	}
	os.Exit(1)
}

package internal

import (
	"io"
	"log"
	"os"
	"sync"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

var (
	logMu    sync.RWMutex
	logLevel = LogLevelInfo
	logger   = log.New(os.Stderr, "", log.LstdFlags)
)

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logMu.Lock()
	logLevel = level
	logMu.Unlock()
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelInfo)
	}
}

// SetLogOutput redirects log output, which defaults to stderr
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

func logf(level LogLevel, prefix, format string, args ...interface{}) {
	logMu.RLock()
	enabled := logLevel >= level
	logMu.RUnlock()
	if enabled {
		logger.Printf(prefix+format, args...)
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logf(LogLevelError, "[ERROR] ", format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	logf(LogLevelWarn, "[WARN] ", format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	logf(LogLevelInfo, "[INFO] ", format, args...)
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	logf(LogLevelDebug, "[DEBUG] ", format, args...)
}

package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Logger struct to hold leveled loggers and configuration
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
	output      io.Writer
	level       LogLevel
	mutex       sync.Mutex
}

// LogLevel defines the logging levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// Global logger instance
var GlobalLogger *Logger
var once sync.Once

// ParseLevel maps a level name to a LogLevel, falling back to INFO.
func ParseLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// New builds a standalone logger writing to output.
func New(output io.Writer, level string) *Logger {
	if output == nil {
		output = os.Stdout
	}
	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		infoLogger:  log.New(output, color.GreenString("INFO: "), flags),
		warnLogger:  log.New(output, color.YellowString("WARN: "), flags),
		errorLogger: log.New(output, color.RedString("ERROR: "), flags),
		debugLogger: log.New(output, color.BlueString("DEBUG: "), flags),
		output:      output,
		level:       ParseLevel(level),
	}
}

// InitLogger initializes the global logger with the specified output and log level
func InitLogger(output io.Writer, level string) {
	once.Do(func() {
		GlobalLogger = New(output, level)
	})
}

// Default returns the global logger, or a discarding one before InitLogger runs.
func Default() *Logger {
	if GlobalLogger != nil {
		return GlobalLogger
	}
	return discard
}

var discard = New(io.Discard, "ERROR")

func (l *Logger) logf(level LogLevel, target func(*Logger) *log.Logger, format string, v ...interface{}) {
	if l == nil {
		return
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.level <= level {
		target(l).Output(3, fmt.Sprintf(format, v...))
	}
}

func (l *Logger) logln(level LogLevel, target func(*Logger) *log.Logger, v ...interface{}) {
	if l == nil {
		return
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.level <= level {
		target(l).Output(3, fmt.Sprintln(v...))
	}
}

func info(l *Logger) *log.Logger  { return l.infoLogger }
func warn(l *Logger) *log.Logger  { return l.warnLogger }
func errs(l *Logger) *log.Logger  { return l.errorLogger }
func debug(l *Logger) *log.Logger { return l.debugLogger }

// Println logs a message at the INFO level
func (l *Logger) Println(v ...interface{}) { l.logln(INFO, info, v...) }

// Printf logs a formatted message at the INFO level
func (l *Logger) Printf(format string, v ...interface{}) { l.logf(INFO, info, format, v...) }

// Warnf logs a formatted message at the WARN level
func (l *Logger) Warnf(format string, v ...interface{}) { l.logf(WARN, warn, format, v...) }

// Error logs a message at the ERROR level
func (l *Logger) Error(v ...interface{}) { l.logln(ERROR, errs, v...) }

// Errorf logs a formatted message at the ERROR level
func (l *Logger) Errorf(format string, v ...interface{}) { l.logf(ERROR, errs, format, v...) }

// Debug logs a message at the DEBUG level
func (l *Logger) Debug(v ...interface{}) { l.logln(DEBUG, debug, v...) }

// Debugf logs a formatted message at the DEBUG level
func (l *Logger) Debugf(format string, v ...interface{}) { l.logf(DEBUG, debug, format, v...) }

// Fatalf logs at the ERROR level and exits.
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.logf(ERROR, errs, format, v...)
	os.Exit(1)
}

package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message.
// The order here defines their numerical value (TRACE=0, DEBUG=1, etc.)
// A logger set to INFO will show INFO, WARN, ERROR, SUCCESS, but NOT DEBUG.
type LogLevel int

const (
	TRACE   LogLevel = iota // 0 - Most verbose, every single request
	DEBUG                   // 1 - Detailed debugging information and fuzz records
	INFO                    // 2 - General information
	WARN                    // 3 - Warnings
	ERROR                   // 4 - Errors
	SUCCESS                 // 5 - Success messages (e.g., endpoint confirmed)
)

// traceLevel sits one step below zap's debug level.
const traceLevel = zapcore.DebugLevel - 1

// successLevel ranks above every built-in zap level, as SUCCESS is the highest LogLevel.
const successLevel = zapcore.FatalLevel + 2

// DefaultLogFile is where fuzz results are written when no path is given.
const DefaultLogFile = "fuzz_results.log"

// Leveled is the logging capability handed to every component.
type Leveled interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
}

// Options configures the sinks of a Logger.
type Options struct {
	FilePath     string    // Append-only log file, always written at DEBUG. Empty disables it.
	Console      io.Writer // Human-facing sink. Defaults to os.Stderr.
	ConsoleLevel LogLevel  // Minimum level printed on the console.
}

// Logger fans every message out to a file sink and a console sink.
type Logger struct {
	sugar        *zap.SugaredLogger
	consoleLevel zap.AtomicLevel
	file         *os.File
	mu           sync.Mutex
}

// New builds a Logger from opts. The caller must Close it to flush the file sink.
func New(opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	consoleLevel := zap.NewAtomicLevelAt(toZap(opts.ConsoleLevel))
	encoder := zapcore.NewConsoleEncoder(encoderConfig())
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(console)), consoleLevel),
	}

	l := &Logger{consoleLevel: consoleLevel}
	if opts.FilePath != "" {
		f, err := os.OpenFile(opts.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", opts.FilePath, err)
		}
		l.file = f
		cores = append(cores, zapcore.NewCore(encoder.Clone(), zapcore.Lock(f), zap.NewAtomicLevelAt(zapcore.DebugLevel)))
	}

	noStack := zap.LevelEnablerFunc(func(zapcore.Level) bool { return false })
	l.sugar = zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(noStack)).Sugar()
	return l, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{
		sugar:        zap.NewNop().Sugar(),
		consoleLevel: zap.NewAtomicLevelAt(zapcore.InfoLevel),
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05,000"),
		EncodeLevel:      encodeLevel,
		EncodeDuration:   zapcore.SecondsDurationEncoder,
		ConsoleSeparator: " - ",
	}
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch l {
	case traceLevel:
		enc.AppendString("TRACE")
	case successLevel:
		enc.AppendString("SUCCESS")
	default:
		zapcore.CapitalLevelEncoder(l, enc)
	}
}

func toZap(level LogLevel) zapcore.Level {
	switch level {
	case TRACE:
		return traceLevel
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	case SUCCESS:
		return successLevel
	default:
		return zapcore.InfoLevel
	}
}

// Info logs an informational message.
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error logs an error message.
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Debugw logs a structured debug entry; keysAndValues alternate key, value.
func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Trace logs a trace message. Only reaches the console if its level is TRACE.
func (l *Logger) Trace(format string, v ...interface{}) {
	l.sugar.Logf(traceLevel, format, v...)
}

// Success logs a success message. It ranks above ERROR.
func (l *Logger) Success(format string, v ...interface{}) {
	l.sugar.Logf(successLevel, format, v...)
}

// SetMinLevel sets the minimum level of the console sink.
func (l *Logger) SetMinLevel(level LogLevel) {
	l.consoleLevel.SetLevel(toZap(level))
}

// Close flushes buffered entries and closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.sugar.Sync()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

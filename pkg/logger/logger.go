package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Level represents the severity of a log message
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

var (
	timeColor   = color.New(color.FgHiBlack)
	prefixColor = color.New(color.FgCyan)
	fieldColor  = color.New(color.FgHiBlack)

	levelColors = map[Level]*color.Color{
		DebugLevel: color.New(color.FgHiBlack),
		InfoLevel:  color.New(color.FgGreen),
		WarnLevel:  color.New(color.FgYellow),
		ErrorLevel: color.New(color.FgRed),
		FatalLevel: color.New(color.FgRed, color.Bold),
	}
)

// Logger is the main logger interface
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithPrefix(prefix string) Logger
}

// sink is shared by a logger and every child derived from it, so level and output
// changes apply to the whole family.
type sink struct {
	mu       sync.Mutex
	level    Level
	writer   io.Writer
	mirror   io.Writer
	noColor  bool
	showTime bool
	exit     func(int)
}

type logger struct {
	sink   *sink
	fields map[string]interface{}
	prefix string
}

// Default logger instance
var defaultLogger = New()

// Config holds logger configuration
type Config struct {
	Level    Level
	Writer   io.Writer
	NoColor  bool
	ShowTime bool
}

// New creates a logger writing to stdout. Color is disabled when stdout is not a terminal.
func New() Logger {
	return NewWithConfig(Config{
		Level:    InfoLevel,
		Writer:   os.Stdout,
		NoColor:  !term.IsTerminal(int(os.Stdout.Fd())),
		ShowTime: true,
	})
}

// NewWithConfig creates a new logger with custom configuration
func NewWithConfig(cfg Config) Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	return &logger{
		sink: &sink{
			level:    cfg.Level,
			writer:   w,
			noColor:  cfg.NoColor,
			showTime: cfg.ShowTime,
			exit:     os.Exit,
		},
		fields: make(map[string]interface{}),
	}
}

func defaultSink() *sink {
	if l, ok := defaultLogger.(*logger); ok {
		return l.sink
	}
	return nil
}

// SetLevel sets the global log level
func SetLevel(level Level) {
	if s := defaultSink(); s != nil {
		s.mu.Lock()
		s.level = level
		s.mu.Unlock()
	}
}

// GetLevel returns the global log level
func GetLevel() Level {
	if s := defaultSink(); s != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.level
	}
	return InfoLevel
}

// SetNoColor disables color output
func SetNoColor(noColor bool) {
	if s := defaultSink(); s != nil {
		s.mu.Lock()
		s.noColor = noColor
		s.mu.Unlock()
	}
}

// SetOutput redirects the global logger.
func SetOutput(w io.Writer) {
	if s := defaultSink(); s != nil {
		s.mu.Lock()
		s.writer = w
		s.mu.Unlock()
	}
}

// SetMirror sends an uncolored copy of every global log line to w, such as a GELF
// writer. A nil writer stops mirroring.
func SetMirror(w io.Writer) {
	if s := defaultSink(); s != nil {
		s.mu.Lock()
		s.mirror = w
		s.mu.Unlock()
	}
}

// Helper methods for the default logger
func Debug(args ...interface{})                       { defaultLogger.Debug(args...) }
func Debugf(format string, args ...interface{})       { defaultLogger.Debugf(format, args...) }
func Info(args ...interface{})                        { defaultLogger.Info(args...) }
func Infof(format string, args ...interface{})        { defaultLogger.Infof(format, args...) }
func Warn(args ...interface{})                        { defaultLogger.Warn(args...) }
func Warnf(format string, args ...interface{})        { defaultLogger.Warnf(format, args...) }
func Error(args ...interface{})                       { defaultLogger.Error(args...) }
func Errorf(format string, args ...interface{})       { defaultLogger.Errorf(format, args...) }
func Fatal(args ...interface{})                       { defaultLogger.Fatal(args...) }
func Fatalf(format string, args ...interface{})       { defaultLogger.Fatalf(format, args...) }
func WithField(key string, value interface{}) Logger  { return defaultLogger.WithField(key, value) }
func WithFields(fields map[string]interface{}) Logger { return defaultLogger.WithFields(fields) }
func WithPrefix(prefix string) Logger                 { return defaultLogger.WithPrefix(prefix) }

// line accumulates the plain and colored renditions of one log line.
type line struct {
	plain   []string
	colored []string
}

func (ln *line) add(text string, c *color.Color) {
	ln.plain = append(ln.plain, text)
	if c == nil {
		ln.colored = append(ln.colored, text)
		return
	}
	ln.colored = append(ln.colored, c.Sprint(text))
}

func (l *logger) log(level Level, args ...interface{}) {
	s := l.sink
	s.mu.Lock()
	if level < s.level {
		s.mu.Unlock()
		return
	}

	var ln line
	if s.showTime {
		ln.add(time.Now().Format("15:04:05"), timeColor)
	}
	ln.add(levelName(level), levelColors[level])
	if l.prefix != "" {
		ln.add("["+l.prefix+"]", prefixColor)
	}
	if len(l.fields) > 0 {
		ln.add(formatFields(l.fields), fieldColor)
	}
	ln.add(fmt.Sprint(args...), nil)

	out := ln.colored
	if s.noColor {
		out = ln.plain
	}
	_, _ = fmt.Fprintln(s.writer, strings.Join(out, " "))
	if s.mirror != nil {
		_, _ = fmt.Fprintln(s.mirror, strings.Join(ln.plain, " "))
	}
	exit := s.exit
	s.mu.Unlock()

	// Exit on fatal (after unlocking mutex)
	if level == FatalLevel {
		exit(1)
	}
}

func (l *logger) logf(level Level, format string, args ...interface{}) {
	l.log(level, fmt.Sprintf(format, args...))
}

// formatFields renders fields in key order so identical inputs give identical lines.
func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

func levelName(level Level) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO "
	case WarnLevel:
		return "WARN "
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l *logger) Debug(args ...interface{})                 { l.log(DebugLevel, args...) }
func (l *logger) Debugf(format string, args ...interface{}) { l.logf(DebugLevel, format, args...) }
func (l *logger) Info(args ...interface{})                  { l.log(InfoLevel, args...) }
func (l *logger) Infof(format string, args ...interface{})  { l.logf(InfoLevel, format, args...) }
func (l *logger) Warn(args ...interface{})                  { l.log(WarnLevel, args...) }
func (l *logger) Warnf(format string, args ...interface{})  { l.logf(WarnLevel, format, args...) }
func (l *logger) Error(args ...interface{})                 { l.log(ErrorLevel, args...) }
func (l *logger) Errorf(format string, args ...interface{}) { l.logf(ErrorLevel, format, args...) }
func (l *logger) Fatal(args ...interface{})                 { l.log(FatalLevel, args...) }
func (l *logger) Fatalf(format string, args ...interface{}) { l.logf(FatalLevel, format, args...) }

func (l *logger) derive(prefix string, extra map[string]interface{}) *logger {
	child := &logger{
		sink:   l.sink,
		fields: make(map[string]interface{}, len(l.fields)+len(extra)),
		prefix: prefix,
	}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for k, v := range extra {
		child.fields[k] = v
	}
	return child
}

func (l *logger) WithField(key string, value interface{}) Logger {
	return l.derive(l.prefix, map[string]interface{}{key: value})
}

func (l *logger) WithFields(fields map[string]interface{}) Logger {
	return l.derive(l.prefix, fields)
}

func (l *logger) WithPrefix(prefix string) Logger {
	return l.derive(prefix, nil)
}

// ParseLevel parses a string log level
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}

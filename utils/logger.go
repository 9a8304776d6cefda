package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// ANSI colour codes for the level tags
const (
	reset  = "\033[0m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	blue   = "\033[34m"
	cyan   = "\033[36m"
)

// Logger is passed to every component that reports progress. There is no
// package-level instance; build one per run with NewLogger.
type Logger struct {
	zl    zerolog.Logger
	color bool
}

// NewLogger writes console lines to out, prefixed with component. Level tags
// and success lines are coloured only when out is a terminal.
func NewLogger(out io.Writer, component, level string) *Logger {
	if out == nil {
		out = os.Stdout
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	l := &Logger{color: isTerminal(out)}

	writer := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !l.color,
		TimeFormat: "15:04:05",
		FormatLevel: func(i interface{}) string {
			switch i {
			case "debug":
				return l.paint(cyan, "[DEBUG]")
			case "info":
				return l.paint(blue, "[INFO] ")
			case "warn":
				return l.paint(yellow, "[WARN] ")
			case "error":
				return l.paint(red, "[ERROR]")
			default:
				return fmt.Sprintf("[%v]", i)
			}
		},
		FormatMessage: func(i interface{}) string {
			if component == "" {
				return fmt.Sprint(i)
			}
			return fmt.Sprintf("[%s] %v", component, i)
		},
	}

	l.zl = zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
	return l
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (l *Logger) paint(code, s string) string {
	if !l.color {
		return s
	}
	return code + s + reset
}

// NopLogger discards everything.
func NopLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying key=value on every line.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger(), color: l.color}
}

func (l *Logger) Debug(format string, a ...interface{}) {
	l.zl.Debug().Msgf(format, a...)
}

func (l *Logger) Info(format string, a ...interface{}) {
	l.zl.Info().Msgf(format, a...)
}

func (l *Logger) Success(format string, a ...interface{}) {
	l.zl.Info().Msg(l.paint(green, fmt.Sprintf(format, a...)))
}

func (l *Logger) Warn(format string, a ...interface{}) {
	l.zl.Warn().Msgf(format, a...)
}

func (l *Logger) Error(format string, a ...interface{}) {
	l.zl.Error().Msgf(format, a...)
}

func (l *Logger) Section(title string) {
	l.zl.Info().Msgf("══════════ %s ══════════", title)
}

// Package logx is the console logger: one short prefixed line per event,
// formatted through fmtx so MCU builds do not pull in fmt.
// Never call it from interrupt context.
package logx

import (
	"io"
	"sync"

	"lowpower-go/x/fmtx"
)

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var prefixes = [...]string{"Debug: ", "Info: ", "Warn: ", "Error: "}

var (
	mu    sync.Mutex
	out   io.Writer = defaultOutput()
	level           = LevelInfo
)

// SetOutput redirects all log lines; nil restores the platform default.
func SetOutput(w io.Writer) {
	mu.Lock()
	if w == nil {
		w = defaultOutput()
	}
	out = w
	mu.Unlock()
}

// SetLevel drops lines below l.
func SetLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

func Debugf(format string, a ...any) { logf(LevelDebug, format, a...) }
func Infof(format string, a ...any)  { logf(LevelInfo, format, a...) }
func Warnf(format string, a ...any)  { logf(LevelWarn, format, a...) }
func Errorf(format string, a ...any) { logf(LevelError, format, a...) }

func logf(l Level, format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	line := prefixes[l] + fmtx.Sprintf(format, a...) + "\n"
	_, _ = io.WriteString(out, line)
}

package log

import (
	stdlog "log"
	"strings"
)

type stdWriter struct {
	logger Logger
}

func (w stdWriter) Write(p []byte) (int, error) {
	w.logger.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// ToStdLogger adapts l to a *log.Logger writing at info level.
func ToStdLogger(l Logger) *stdlog.Logger {
	return stdlog.New(stdWriter{logger: l}, "", 0)
}

// RedirectStdLog routes the standard library's default logger through l.
func RedirectStdLog(l Logger) {
	stdlog.SetFlags(0)
	stdlog.SetPrefix("")
	stdlog.SetOutput(stdWriter{logger: l.WithComponent("stdlog")})
}

// PebbleLogger adapts l to pebble's Logger interface (Infof/Errorf/Fatalf).
type PebbleLogger struct {
	L Logger
}

func (p PebbleLogger) Infof(format string, args ...interface{})  { p.L.Infof(format, args...) }
func (p PebbleLogger) Errorf(format string, args ...interface{}) { p.L.Errorf(format, args...) }
func (p PebbleLogger) Fatalf(format string, args ...interface{}) {
	p.L.Errorf(format, args...)
	p.L.Fatal("pebble fatal")
}

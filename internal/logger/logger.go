package logger

import (
	stdlog "log"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a logger
type Logger struct {
	*zap.SugaredLogger
}

// New creates a new logger
func New(loglevel zapcore.Level) *Logger {
	// Configure console output.
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoder := zapcore.NewJSONEncoder(encoderConfig)

	// Log errors to stderr
	stderrLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= loglevel && lvl >= zapcore.ErrorLevel
	})

	stdoutLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= loglevel && lvl < zapcore.ErrorLevel
	})
	stdout := zapcore.Lock(os.Stdout)
	stderr := zapcore.Lock(os.Stderr)

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder, stderr, stderrLevel),
		zapcore.NewCore(consoleEncoder, stdout, stdoutLevel),
	)

	log := zap.New(core, zap.AddCaller())

	// Redirect stdlib log package to zap
	_, _ = zap.RedirectStdLogAt(log, zapcore.ErrorLevel)

	return &Logger{
		log.Sugar(),
	}
}

// Named returns a logger scoped to a component, e.g. "session" or "render"
func (l *Logger) Named(component string) *Logger {
	return &Logger{
		l.SugaredLogger.Named(component),
	}
}

type httpErrorLog struct {
	log *Logger
}

func (h *httpErrorLog) Write(p []byte) (int, error) {
	m := strings.TrimSpace(string(p))

	switch {
	case strings.HasPrefix(m, "http: URL query contains semicolon"),
		strings.HasPrefix(m, "http: TLS handshake error"):
		h.log.Debug(m)
	default:
		h.log.Error(m)
	}

	return len(p), nil
}

// NewHTTPErrorLog returns a stdlib logger for http.Server that demotes client noise to debug
func NewHTTPErrorLog(logger *Logger) *stdlog.Logger {
	return stdlog.New(&httpErrorLog{logger}, "", 0)
}

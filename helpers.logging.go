package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LoggerContextKey ContextKey = "request.logger"
)

var _ zapcore.WriteSyncer = (*RotatingFileWriter)(nil)

// RotatingFileWriter writes logs into files of the log folder. A new file
// is started once the current one would grow beyond the max size.
type RotatingFileWriter struct {
	mu       sync.Mutex
	clock    Clocker
	folder   string
	isProd   bool
	maxBytes int64
	file     *os.File
	written  int64
}

// NewRotatingFileWriter provides a writer rotating at `log_max_size` MB.
// The first file is only created on the first write.
func NewRotatingFileWriter(config *Config, clock Clocker) *RotatingFileWriter {
	return &RotatingFileWriter{
		clock:    clock,
		folder:   config.LogFolder,
		isProd:   config.IsProduction,
		maxBytes: int64(config.LogMaxSize) << 20,
	}
}

// Write appends p to the current file, rotating it first when needed.
func (w *RotatingFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	size := int64(len(p))
	if size > w.maxBytes {
		return 0, fmt.Errorf("logging: entry of %d bytes exceeds max file size of %d bytes", size, w.maxBytes)
	}
	if w.file == nil || w.written+size > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.written += int64(n)
	return n, err
}

func (w *RotatingFileWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return err
		}
		w.file = nil
	}
	path := CreateLogFilePath(w.folder, w.isProd, w.clock.Now())
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.file, w.written = file, 0
	return nil
}

// Sync flushes the current file if any.
func (w *RotatingFileWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close closes the current file. A later write opens a new one.
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// stdoutSyncer skips Sync on the standard output, which fails
// with `invalid argument` or `handle is invalid` on most terminals.
type stdoutSyncer struct{}

func (stdoutSyncer) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (stdoutSyncer) Sync() error { return nil }

func newEncoderConfig(isProd bool) zapcore.EncoderConfig {
	ec := zap.NewDevelopmentEncoderConfig()
	if isProd {
		ec = zap.NewProductionEncoderConfig()
	}
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.LevelKey = "lvl"
	ec.NameKey = "name"
	ec.MessageKey = "msg"
	ec.CallerKey = "caller"
	ec.StacktraceKey = "skt"
	return ec
}

// SetupLogging builds the app logger. Entries are written as json to w and,
// outside production, also printed to the console. Only fatal entries carry
// a stacktrace and all of them carry the build details.
func SetupLogging(config *Config, w zapcore.WriteSyncer, clock zapcore.Clock) (*zap.Logger, func() error) {
	ec := newEncoderConfig(config.IsProduction)
	core := zapcore.NewCore(zapcore.NewJSONEncoder(ec), w, config.LogLevel)
	if !config.IsProduction {
		core = zapcore.NewTee(
			core,
			zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(stdoutSyncer{}), config.LogLevel),
		)
	}

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.FatalLevel), zap.WithClock(clock)).With(
		zap.String("app.commit", config.GitCommit),
		zap.String("app.tag", config.GitTag),
		zap.String("app.built", config.BuildTime),
	)

	flusher := func() error {
		if err := logger.Sync(); err != nil {
			return fmt.Errorf("[flush logs]: %w", err)
		}
		return nil
	}
	return logger, flusher
}

// GetLoggerFromContext returns the request scoped logger set by the core
// middleware or the app logger when the request did not go through it.
func (api *APIHandler) GetLoggerFromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*zap.Logger); ok {
		return logger
	}
	return api.logger
}

// CreateLogFilePath names a log file after its creation time and environment.
func CreateLogFilePath(folder string, isProd bool, t time.Time) string {
	env := "dev"
	if isProd {
		env = "prod"
	}
	return filepath.Join(folder, t.Format("20060102.150405")+"."+env+".log")
}

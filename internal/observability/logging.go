package observability

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/spec-kit/helpdesk-sla/internal/config"
)

// NewLogger creates a structured zap.Logger configured via env settings.
// When cfg.File is set, entries are also written to a rotating file.
func NewLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	encoder := zapcore.NewJSONEncoder(encoderConfig())
	atomic := zap.NewAtomicLevelAt(level)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), atomic),
	}
	if cfg.File != "" {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(fileSink(cfg)), atomic))
	}

	return zap.New(zapcore.NewTee(cores...),
		zap.ErrorOutput(zapcore.Lock(os.Stderr)),
		zap.AddCaller(),
	), nil
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:    "message",
		LevelKey:      "level",
		TimeKey:       "ts",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(l.String())
		},
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func fileSink(cfg config.LoggerConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.FileMaxSizeMB,
		MaxBackups: cfg.FileMaxBackups,
		MaxAge:     cfg.FileMaxAgeDays,
		Compress:   cfg.FileCompress,
	}
}

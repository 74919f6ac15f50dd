package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log  *zap.Logger
	once sync.Once
)

// Init configures the package logger. Safe to call more than once; only the
// first call takes effect. Debug enables debug-level output.
func Init(debug bool) {
	once.Do(func() {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		level := zapcore.InfoLevel
		if debug {
			level = zapcore.DebugLevel
		}
		core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(os.Stderr), level)
		log = zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
	})
}

func get() *zap.Logger {
	if log == nil {
		Init(false)
	}
	return log
}

// Debug logs a debug-level message.
func Debug(msg string, fields ...zap.Field) {
	get().Debug(msg, fields...)
}

// Info logs an info-level message.
func Info(msg string, fields ...zap.Field) {
	get().Info(msg, fields...)
}

// Warn logs a warn-level message.
func Warn(msg string, fields ...zap.Field) {
	get().Warn(msg, fields...)
}

// Error logs an error-level message.
func Error(msg string, fields ...zap.Field) {
	get().Error(msg, fields...)
}

package utils

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger writes to out (stdout when nil). Debug enables the debug level and
// switches from JSON to the console encoder.
func NewLogger(debug bool, out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.InfoLevel
	encoder := zapcore.NewJSONEncoder(encoderConfig)
	if debug {
		level = zapcore.DebugLevel
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(out), level)
	return &Logger{sugar: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()}
}

// NewNopLogger discards everything. Used by tests.
func NewNopLogger() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(v ...interface{}) {
	l.sugar.Debugln(v...)
}

func (l *Logger) Info(v ...interface{}) {
	l.sugar.Infoln(v...)
}

func (l *Logger) Warn(v ...interface{}) {
	l.sugar.Warnln(v...)
}

func (l *Logger) Error(v ...interface{}) {
	l.sugar.Errorln(v...)
}

func (l *Logger) Fatal(v ...interface{}) {
	l.sugar.Fatalln(v...)
}

func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ILogger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
	Sync() error
}

type ZapLogger struct {
	logger *zap.Logger
}

func newRotator(logFilePath string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10,   // Megabytes
		MaxBackups: 5,    // Files
		MaxAge:     30,   // Days
		Compress:   true, // gzip
	}
}

func newJSONEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

func NewZapLogger(logFilePath string, isProd bool) *ZapLogger {
	jsonEncoder := newJSONEncoder()

	fileCore := zapcore.NewCore(
		jsonEncoder,
		zapcore.AddSync(newRotator(logFilePath)),
		zap.InfoLevel,
	)

	var consoleEncoder zapcore.Encoder
	if isProd {
		consoleEncoder = jsonEncoder
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	consoleCore := zapcore.NewCore(
		consoleEncoder,
		zapcore.Lock(os.Stdout),
		zap.DebugLevel,
	)

	core := zapcore.NewTee(fileCore, consoleCore)

	// Skip 1 to point to caller of wrapper
	return &ZapLogger{logger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
}

// NewIsolatedLogger creates a logger that ONLY writes to the file, not console.
// Used for the websocket domain to keep main logs clean.
func NewIsolatedLogger(logFilePath string) *ZapLogger {
	fileCore := zapcore.NewCore(
		newJSONEncoder(),
		zapcore.AddSync(newRotator(logFilePath)),
		zap.InfoLevel,
	)

	return &ZapLogger{logger: zap.New(fileCore, zap.AddCaller(), zap.AddCallerSkip(1))}
}

// NewNopLogger discards everything. Tests use it.
func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

func withDetails(module string, details map[string]interface{}) []zap.Field {
	if details == nil {
		details = make(map[string]interface{})
	}
	return []zap.Field{zap.String("module", module), zap.Any("details", details)}
}

func (l *ZapLogger) Debug(module, message string, details map[string]interface{}) {
	l.logger.Debug(message, withDetails(module, details)...)
}

func (l *ZapLogger) Info(module, message string, details map[string]interface{}) {
	l.logger.Info(message, withDetails(module, details)...)
}

func (l *ZapLogger) Warn(module, message string, details map[string]interface{}) {
	l.logger.Warn(message, withDetails(module, details)...)
}

func (l *ZapLogger) Error(module, message string, details map[string]interface{}) {
	fields := withDetails(module, details)
	if err, ok := details["error"].(error); ok {
		fields = append(fields, zap.Error(err))
	}
	l.logger.Error(message, fields...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

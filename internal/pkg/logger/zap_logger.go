package logger

import (
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "commerce-assistant"

// ILogger is the structured logger every package receives. details keys
// become top-level fields so session_id, intent and stage stay queryable.
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

func NewZapLogger(logFilePath string, isProd bool) *ZapLogger {
	rotator := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	consoleEncoder := jsonEncoder
	consoleLevel := zap.InfoLevel
	if !isProd {
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		consoleLevel = zap.DebugLevel
	}

	core := zapcore.NewTee(
		zapcore.NewCore(jsonEncoder, zapcore.AddSync(rotator), zap.InfoLevel),
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), consoleLevel),
	)
	return newZapLogger(core)
}

// NewNopLogger discards everything.
func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

func newZapLogger(core zapcore.Core) *ZapLogger {
	// Skip the wrapper frames so callers show up in the caller field.
	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)).With(zap.String("service", serviceName))
	return &ZapLogger{logger: l}
}

func (l *ZapLogger) Debug(module, message string, details map[string]interface{}) {
	l.write(zapcore.DebugLevel, module, message, details)
}

func (l *ZapLogger) Info(module, message string, details map[string]interface{}) {
	l.write(zapcore.InfoLevel, module, message, details)
}

func (l *ZapLogger) Warn(module, message string, details map[string]interface{}) {
	l.write(zapcore.WarnLevel, module, message, details)
}

func (l *ZapLogger) Error(module, message string, details map[string]interface{}) {
	l.write(zapcore.ErrorLevel, module, message, details)
}

func (l *ZapLogger) write(level zapcore.Level, module, message string, details map[string]interface{}) {
	ce := l.logger.Check(level, message)
	if ce == nil {
		return
	}
	ce.Write(fields(module, details)...)
}

// fields flattens details in key order. Errors keep their message under the
// same key.
func fields(module string, details map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(details)+1)
	out = append(out, zap.String("module", module))

	keys := make([]string, 0, len(details))
	for k := range details {
		if k == "module" || k == "service" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := details[k].(type) {
		case error:
			out = append(out, zap.NamedError(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

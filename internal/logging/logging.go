package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 根据日志级别与格式构造 zap 日志器。
// format 为 console 时输出便于本地阅读的文本，其余情况输出 JSON。
func New(level, format string) *zap.Logger {
	atomic := zap.NewAtomicLevel()
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		atomic.SetLevel(zapcore.DebugLevel)
	case "warn":
		atomic.SetLevel(zapcore.WarnLevel)
	case "error":
		atomic.SetLevel(zapcore.ErrorLevel)
	default:
		atomic.SetLevel(zapcore.InfoLevel)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "@timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), atomic)
	return zap.New(core, zap.AddCaller())
}

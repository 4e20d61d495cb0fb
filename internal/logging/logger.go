package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the JSON logger used across the service. When logstashAddr is
// set, every entry is also mirrored to Logstash. The returned func flushes and
// releases the sinks.
func New(level, logstashAddr string) (*zap.Logger, func(), error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)
	lvl := ParseLevel(level)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), lvl),
	}

	var sink *LogstashSink
	if strings.TrimSpace(logstashAddr) != "" {
		s, err := NewLogstashSink(logstashAddr)
		if err != nil {
			return nil, nil, err
		}
		sink = s
		cores = append(cores, zapcore.NewCore(encoder, sink, lvl))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	cleanup := func() {
		_ = logger.Sync()
		if sink != nil {
			_ = sink.Close()
		}
	}
	return logger, cleanup, nil
}

func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

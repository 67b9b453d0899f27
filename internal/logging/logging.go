package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

type Config struct {
	Production bool
	Level      string
	Format     string
	// OutputPaths defaults to stderr so command output on stdout stays clean.
	OutputPaths []string
}

func (c Config) Build() (*zap.Logger, error) {
	var conf zap.Config
	if c.Production {
		conf = zap.NewProductionConfig()
	} else {
		conf = zap.NewDevelopmentConfig()
	}

	encConfig := conf.EncoderConfig
	switch strings.ToLower(strings.TrimSpace(c.Format)) {
	case "", FormatConsole:
		conf.Encoding = "console"
		encConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case FormatJSON:
		encConfig.MessageKey = "msg"
		encConfig.TimeKey = "ts"
		encConfig.LevelKey = "level"
		encConfig.NameKey = "logger"
		encConfig.CallerKey = "caller"
		encConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		conf.Encoding = "json"
	default:
		return nil, fmt.Errorf("unsupported log format %q", c.Format)
	}
	conf.EncoderConfig = encConfig

	if c.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		conf.Level = level
	}

	conf.OutputPaths = []string{"stderr"}
	if len(c.OutputPaths) > 0 {
		conf.OutputPaths = c.OutputPaths
	}
	conf.ErrorOutputPaths = []string{"stderr"}

	logger, err := conf.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger, nil
}

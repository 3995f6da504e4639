package logging

import (
	"fmt"
	"os"
	"strings"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"basecode-go/pkg/config"
)

// fileLevels are the levels that get their own daily file when file output is enabled.
var fileLevels = []zapcore.Level{
	zapcore.DebugLevel,
	zapcore.InfoLevel,
	zapcore.WarnLevel,
	zapcore.ErrorLevel,
}

// New builds the application logger.
//
// Entries always go to stderr. When cfg.Output names a directory, every entry
// is also appended to {Output}/{yyyy-mm-dd}/{level}.log, where error and above
// share error.log.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	return newLogger(cfg, rotatelogs.Local)
}

func newLogger(cfg config.LogConfig, clock rotatelogs.Clock) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var consoleEncoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "json":
		consoleEncoder = zapcore.NewJSONEncoder(encoderConfig)
	case "", "console", "text":
		devConfig := encoderConfig
		devConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		consoleEncoder = zapcore.NewConsoleEncoder(devConfig)
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level),
	}

	if cfg.Output != "" {
		if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
		for _, lvl := range fileLevels {
			if lvl < level && lvl != zapcore.ErrorLevel {
				continue
			}
			writer, err := newLevelFile(cfg.Output, lvl.String(), cfg.MaxAgeDays, clock)
			if err != nil {
				return nil, err
			}
			cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(writer), exactly(lvl, level)))
		}
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// exactly enables only lvl, or lvl and above for the error file.
func exactly(lvl, min zapcore.Level) zap.LevelEnablerFunc {
	return func(l zapcore.Level) bool {
		if l < min {
			return false
		}
		if lvl == zapcore.ErrorLevel {
			return l >= zapcore.ErrorLevel
		}
		return l == lvl
	}
}

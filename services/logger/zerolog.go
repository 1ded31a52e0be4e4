package logsvc

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/trezcool/pta/core"
)

const timeFormat = "2006-01-02 15:04:05"

// NewZerolog returns a console logger writing to `out`, teed to a rotating file when `conf.Log.File` is set.
func NewZerolog(out io.Writer, conf *core.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(conf.Log.Level)
	if err != nil || conf.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	if conf.Debug {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat, NoColor: conf.TestMode}
	zl := zerolog.New(console).Level(level).With().Timestamp().Str("app", conf.AppName).Logger()
	if conf.Log.File == "" {
		return zl
	}

	if err = os.MkdirAll(filepath.Dir(conf.Log.File), 0o755); err != nil {
		zl.Error().Err(err).Str("path", conf.Log.File).Msg("preparing log directory; logging to console only")
		return zl
	}
	file := &lumberjack.Logger{
		Filename:   conf.Log.File,
		MaxSize:    conf.Log.MaxSizeMB,
		MaxBackups: conf.Log.MaxBackups,
		MaxAge:     conf.Log.MaxAgeDays,
		Compress:   conf.Log.Compress,
	}
	multi := zerolog.MultiLevelWriter(console, zerolog.ConsoleWriter{Out: file, TimeFormat: timeFormat, NoColor: true})
	return zerolog.New(multi).Level(level).With().Timestamp().Str("app", conf.AppName).Logger()
}

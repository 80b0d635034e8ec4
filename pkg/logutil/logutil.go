// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logutil

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
)

// LogConfig log config
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	Filename   string `toml:"filename"`
	MaxSize    int    `toml:"max-size"`
	MaxDays    int    `toml:"max-days"`
	MaxBackups int    `toml:"max-backups"`
	// StacktraceLevel is the lowest level that records a stacktrace,
	// defaults to panic.
	StacktraceLevel string `toml:"stacktrace-level"`
}

// ZapSink pairs an encoder with the syncer it writes to.
type ZapSink struct {
	enc zapcore.Encoder
	out zapcore.WriteSyncer
}

var (
	gLogger    atomic.Value
	gLogConfig atomic.Value
)

func init() {
	SetupMOLogger(&LogConfig{Level: "info", Format: "console"})
}

// SetupMOLogger builds the global logger from conf and replaces the previous one.
func SetupMOLogger(conf *LogConfig) {
	logger := conf.build()
	replaceGlobalLogger(logger)
	gLogConfig.Store(*conf)
	logger.Debug("global logger replaced", zap.String("level", conf.Level), zap.String("format", conf.Format))
}

// GetGlobalLogger returns the current global zap logger
func GetGlobalLogger() *zap.Logger {
	return gLogger.Load().(*zap.Logger)
}

func getGlobalLogConfig() LogConfig {
	return gLogConfig.Load().(LogConfig)
}

func replaceGlobalLogger(logger *zap.Logger) {
	gLogger.Store(logger)
}

func (cfg *LogConfig) build() *zap.Logger {
	sinks := cfg.getSinks()
	cores := make([]zapcore.Core, 0, len(sinks))
	level := cfg.getLevel()
	for _, sink := range sinks {
		cores = append(cores, zapcore.NewCore(sink.enc, sink.out, level))
	}
	return zap.New(zapcore.NewTee(cores...), cfg.getOptions()...)
}

func (cfg *LogConfig) getSyncer() zapcore.WriteSyncer {
	if cfg.Filename == "" || cfg.Filename == "console" {
		return getConsoleSyncer()
	}

	if stat, err := os.Stat(cfg.Filename); err == nil {
		if stat.IsDir() {
			panic("log file can't be a directory")
		}
	}

	if cfg.MaxSize == 0 {
		cfg.MaxSize = 512
	}
	// add lumberjack logger
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Clean(cfg.Filename),
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxDays,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
		Compress:   false,
	})
}

func (cfg *LogConfig) getEncoder() zapcore.Encoder {
	return getLoggerEncoder(cfg.Format)
}

// Validate checks the level, stacktrace level and format names before any
// logger is built from cfg.
func (cfg *LogConfig) Validate(ctx context.Context) error {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
		return moerr.NewBadConfig(ctx, "invalid log level: %s", cfg.Level)
	}
	if len(cfg.StacktraceLevel) > 0 {
		var level zapcore.Level
		if err := level.Set(cfg.StacktraceLevel); err != nil {
			return moerr.NewBadConfig(ctx, "invalid stacktrace level: %s", cfg.StacktraceLevel)
		}
	}
	switch cfg.Format {
	case "json", "console", "":
	default:
		return moerr.NewBadConfig(ctx, "unsupported log format: %s", cfg.Format)
	}
	return nil
}

func (cfg *LogConfig) getLevel() zap.AtomicLevel {
	level := zap.NewAtomicLevel()
	err := level.UnmarshalText([]byte(cfg.Level))
	if err != nil {
		panic(moerr.NewInternalError(context.TODO(), "invalid log level: %s", cfg.Level))
	}
	return level
}

func (cfg *LogConfig) getSinks() []ZapSink {
	encoder, syncer := cfg.getEncoder(), cfg.getSyncer()
	return []ZapSink{{encoder, syncer}}
}

func (cfg *LogConfig) getOptions() []zap.Option {
	stackLevel := zapcore.PanicLevel
	if len(cfg.StacktraceLevel) > 0 {
		if err := stackLevel.Set(cfg.StacktraceLevel); err != nil {
			panic(moerr.NewInternalError(context.TODO(), "invalid stacktrace level: %s", cfg.StacktraceLevel))
		}
	}
	return []zap.Option{zap.AddStacktrace(stackLevel), zap.AddCaller()}
}

func getConsoleSyncer() zapcore.WriteSyncer {
	return zapcore.AddSync(os.Stdout)
}

func getLoggerEncoder(format string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		NameKey:        "name",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05.000000 -0700"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	}

	switch format {
	case "json", "":
		return zapcore.NewJSONEncoder(encoderConfig)
	case "console":
		return zapcore.NewConsoleEncoder(encoderConfig)
	default:
		panic(moerr.NewInternalError(context.TODO(), "unsupported log format: %s", format))
	}
}

// Elapsed is a zap field with the duration since start.
func Elapsed(start time.Time) zap.Field {
	return zap.Duration("duration", time.Since(start))
}

package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/sharpbridge/binding"
	"github.com/wippyai/sharpbridge/buildinfo"
	"github.com/wippyai/sharpbridge/graphexport"
	"github.com/wippyai/sharpbridge/guest"
	"github.com/wippyai/sharpbridge/interop"
	"github.com/wippyai/sharpbridge/store"
	"github.com/wippyai/sharpbridge/typedef"
)

// setupLogger builds the process logger and hands named children to every
// package that logs. Output goes to stderr unless a file is given.
func setupLogger(opts LogOptions) (*zap.Logger, func(), error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		l, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, err
		}
		level = l
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Development = false
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	if opts.File != "" {
		cfg.OutputPaths = []string{opts.File}
		cfg.Encoding = "json"
		cfg.EncoderConfig = zap.NewProductionEncoderConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}

	typedef.SetLogger(logger.Named("typedef"))
	interop.SetLogger(logger.Named("interop"))
	buildinfo.SetLogger(logger.Named("buildinfo"))
	binding.SetLogger(logger.Named("binding"))
	guest.SetLogger(logger.Named("guest"))
	store.SetLogger(logger.Named("store"))
	graphexport.SetLogger(logger.Named("graph"))

	return logger, func() { _ = logger.Sync() }, nil
}

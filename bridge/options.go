package bridge

import (
	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/binding"
	"github.com/wippyai/sharpbridge/buildinfo"
	"github.com/wippyai/sharpbridge/interop"
	"github.com/wippyai/sharpbridge/typedef"
)

// FatalHandler receives errors the bridge must not continue past, such as
// a platform mismatch reported by the managed side.
type FatalHandler func(err error)

// Option configures a Bridge.
type Option func(*config)

type config struct {
	logger    *zap.Logger
	fatal     FatalHandler
	native    buildinfo.BuildInfo
	namer     typedef.Namer
	runtime   *binding.Table
	functions []interop.Function
}

func defaultConfig() config {
	return config{
		logger: zap.NewNop(),
		native: buildinfo.Native(),
		namer:  typedef.DefaultNamer(),
	}
}

// WithLogger sets the logger for bridge events and managed log output.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFatalHandler replaces the default handler, which logs at fatal
// level and exits the process.
func WithFatalHandler(h FatalHandler) Option {
	return func(c *config) {
		c.fatal = h
	}
}

// WithNativeBuildInfo overrides the compiled-in build info.
func WithNativeBuildInfo(info buildinfo.BuildInfo) Option {
	return func(c *config) {
		c.native = info
	}
}

// WithNamer sets the naming rules used for CRC lookups.
func WithNamer(n typedef.Namer) Option {
	return func(c *config) {
		c.namer = n
	}
}

// WithRuntime registers the resolved runtime API after the generated set.
func WithRuntime(t *binding.Table) Option {
	return func(c *config) {
		c.runtime = t
	}
}

// WithFunctions registers extra functions last. They may not replace
// earlier entries.
func WithFunctions(fns ...interop.Function) Option {
	return func(c *config) {
		c.functions = append(c.functions, fns...)
	}
}

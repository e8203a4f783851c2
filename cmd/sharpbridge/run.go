package main

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/bridge"
	"github.com/wippyai/sharpbridge/guest"
)

// RunCmd hosts a WASI-compiled managed assembly.
type RunCmd struct {
	Wasm             string            `arg:"" help:"Guest module" type:"existingfile"`
	Args             []string          `arg:"" optional:"" help:"Guest arguments"`
	Env              map[string]string `help:"Guest environment"`
	MemoryLimitPages uint32            `help:"Guest memory cap in 64KiB pages (0 keeps the default)"`
	Runtime          RuntimeOptions    `embed:"" prefix:"runtime."`
}

func (c *RunCmd) Run(g *Globals, log *zap.Logger) error {
	wasm, err := os.ReadFile(c.Wasm)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A fatal build mismatch stops the guest instead of the process.
	var (
		fatalMu sync.Mutex
		fatal   error
	)
	onFatal := func(err error) {
		fatalMu.Lock()
		if fatal == nil {
			fatal = err
		}
		fatalMu.Unlock()
		log.Error("managed runtime cannot continue", zap.Error(err))
		cancel()
	}

	s, err := g.open(log, c.Runtime, bridge.WithFatalHandler(onFatal))
	if err != nil {
		return err
	}
	defer s.Close()

	host, err := guest.New(ctx, s.bridge,
		guest.WithMemoryLimitPages(c.MemoryLimitPages),
		guest.WithStdout(os.Stdout),
		guest.WithStderr(os.Stderr),
		guest.WithEnv(c.Env),
	)
	if err != nil {
		return err
	}
	defer host.Close(context.Background())

	runErr := host.Run(ctx, wasm, c.Args...)

	fatalMu.Lock()
	defer fatalMu.Unlock()
	if fatal != nil {
		return fatal
	}
	return runErr
}

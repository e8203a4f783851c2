package main

import (
	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/binding"
	"github.com/wippyai/sharpbridge/bridge"
	"github.com/wippyai/sharpbridge/errors"
)

var errNoSnapshot = errors.InvalidInput(errors.PhaseLoad, "no reflection snapshot, pass --snapshot")

// RuntimeOptions select the embedded runtime library to bind.
type RuntimeOptions struct {
	Library string `help:"Embedded runtime shared library to bind into the registry" type:"path"`
}

// session is a bridge plus whatever native library backs it. rt is nil
// unless a runtime library was bound.
type session struct {
	bridge *bridge.Bridge
	lib    binding.Library
	rt     *binding.Runtime
}

func (s *session) Close() error {
	err := s.bridge.Close()
	if s.lib != nil {
		if cerr := s.lib.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (g *Globals) open(log *zap.Logger, rt RuntimeOptions, opts ...bridge.Option) (*session, error) {
	u, err := g.universe()
	if err != nil {
		return nil, err
	}
	s := &session{}
	base := []bridge.Option{
		bridge.WithLogger(log),
		bridge.WithNamer(g.Namer.namer()),
	}

	if rt.Library != "" {
		lib, err := binding.Open(rt.Library)
		if err != nil {
			return nil, err
		}
		table, err := binding.Bind(lib, binding.API)
		if err != nil {
			_ = lib.Close()
			return nil, err
		}
		s.rt, err = table.Runtime()
		if err != nil {
			_ = lib.Close()
			return nil, err
		}
		log.Info("runtime library bound",
			zap.String("library", table.Library()),
			zap.Bool("internal_calls", s.rt.AddInternalCall != nil))
		s.lib = lib
		base = append(base, bridge.WithRuntime(table))
	}

	s.bridge, err = bridge.New(u, append(base, opts...)...)
	if err != nil {
		if s.lib != nil {
			_ = s.lib.Close()
		}
		return nil, err
	}
	return s, nil
}

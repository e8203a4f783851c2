package main

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/binding"
	"github.com/wippyai/sharpbridge/errors"
	"github.com/wippyai/sharpbridge/interop"
)

// HostCmd boots the runtime in-process and calls a managed entry point,
// which bootstraps through the registered interop pointer.
type HostCmd struct {
	Assembly string         `arg:"" help:"Managed assembly to load" type:"existingfile"`
	Entry    string         `help:"Static entry method as Namespace.Class:Method" default:"UnrealSharp.Plugins.Main:Initialize"`
	Domain   string         `help:"Root domain name" default:"sharpbridge"`
	Version  string         `help:"Runtime version passed to the JIT" default:"v4.0.30319"`
	Runtime  RuntimeOptions `embed:"" prefix:"runtime."`
}

func (c *HostCmd) Run(g *Globals, log *zap.Logger) error {
	if c.Runtime.Library == "" {
		return errors.InvalidInput(errors.PhaseLoad, "host needs --runtime.library")
	}
	s, err := g.open(log, c.Runtime)
	if err != nil {
		return err
	}
	defer s.Close()
	return host(s, log, c.Assembly, c.Entry, c.Domain, c.Version)
}

// host runs entry on a booted domain. The runtime binds the domain to the
// calling OS thread, so the goroutine stays locked until it returns.
func host(s *session, log *zap.Logger, assembly, entry, domain, version string) error {
	if s.rt == nil {
		return errors.NotInitialized(errors.PhaseLoad, "embedded runtime")
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	d, err := s.rt.Boot(domain, version)
	if err != nil {
		return err
	}
	defer d.Close()

	if s.rt.AddInternalCall != nil {
		addr, err := s.bridge.Registry().Resolve(interop.NameInteropFunctionsPtr)
		if err != nil {
			return err
		}
		s.rt.AddInternalCall("UnrealSharp.Binds.NativeBinds::"+interop.NameInteropFunctionsPtr, uintptr(addr))
		log.Debug("interop bootstrap published as internal call", zap.Uintptr("address", uintptr(addr)))
	}

	if err := d.InvokeStatic(assembly, entry); err != nil {
		return err
	}
	log.Info("managed entry returned", zap.String("entry", entry))
	return nil
}

package main

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/buildinfo"
)

// CheckBuildCmd validates a managed build description against this binary.
type CheckBuildCmd struct {
	Record        string `help:"Binary build-info record written by the managed side" type:"existingfile" xor:"source"`
	Platform      string `help:"Managed platform" xor:"source"`
	Configuration string `help:"Managed configuration" default:"Development"`
	Editor        bool   `help:"Managed side was built with the editor"`

	Stdout io.Writer `kong:"-"`
}

func (c *CheckBuildCmd) managed() (buildinfo.BuildInfo, error) {
	var info buildinfo.BuildInfo
	if c.Record != "" {
		data, err := os.ReadFile(c.Record)
		if err != nil {
			return info, err
		}
		err = info.UnmarshalBinary(data)
		return info, err
	}

	info.Platform = buildinfo.Native().Platform
	if c.Platform != "" {
		p, err := buildinfo.ParsePlatform(c.Platform)
		if err != nil {
			return info, err
		}
		info.Platform = p
	}
	cfg, err := buildinfo.ParseConfiguration(c.Configuration)
	if err != nil {
		return info, err
	}
	info.Configuration = cfg
	info.WithEditor = c.Editor
	return info, nil
}

func (c *CheckBuildCmd) Run(log *zap.Logger) error {
	out := c.Stdout
	if out == nil {
		out = os.Stdout
	}
	managed, err := c.managed()
	if err != nil {
		return err
	}
	report, err := buildinfo.Validate(managed)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "native:  %s\nmanaged: %s\n", report.Native, report.Managed)
	if report.ConfigurationMismatch {
		fmt.Fprintln(out, "warning: configuration differs")
	} else {
		fmt.Fprintln(out, "ok")
	}
	log.Debug("build info checked", zap.Bool("configuration_mismatch", report.ConfigurationMismatch))
	return nil
}

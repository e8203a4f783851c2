package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/interop"
)

// FunctionsCmd lists the registry with WIT signatures.
type FunctionsCmd struct {
	JSON    bool           `help:"Print JSON instead of a table"`
	Runtime RuntimeOptions `embed:"" prefix:"runtime."`

	Stdout io.Writer `kong:"-"`
}

// functionRow is one listed registry entry.
type functionRow struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Signature string   `json:"signature"`
	Params    []string `json:"params,omitempty"`
}

func describe(f interop.Function) functionRow {
	row := functionRow{
		Name:      f.Name,
		Address:   fmt.Sprintf("%#x", uintptr(f.Addr)),
		Signature: "native",
		Params:    f.ParamNames,
	}
	if f.Fn != nil {
		if sig, err := interop.SignatureOf(f.Fn); err == nil {
			row.Signature = sig.String()
		} else {
			row.Signature = "unsupported"
		}
	}
	return row
}

func (c *FunctionsCmd) Run(g *Globals, log *zap.Logger) error {
	s, err := g.open(log, c.Runtime)
	if err != nil {
		return err
	}
	defer s.Close()

	out := c.Stdout
	if out == nil {
		out = os.Stdout
	}
	return printFunctions(out, s.bridge.Registry().Functions(), c.JSON)
}

func printFunctions(out io.Writer, fns []interop.Function, asJSON bool) error {
	rows := make([]functionRow, 0, len(fns))
	for _, f := range fns {
		rows = append(rows, describe(f))
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tADDRESS\tSIGNATURE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Address, r.Signature)
	}
	return tw.Flush()
}

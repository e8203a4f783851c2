package main

import (
	goerrors "errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/errors"
	"github.com/wippyai/sharpbridge/typedef"
)

// ValidateCmd decodes exported definition arrays. Bad entries are reported
// and skipped; the command fails if any file had one.
type ValidateCmd struct {
	Files  []string `arg:"" help:"Exported JSON files" type:"existingfile"`
	Schema bool     `help:"Also check entries against the embedded schema" default:"true" negatable:""`

	Stdout io.Writer `kong:"-"`
}

func (c *ValidateCmd) Run(log *zap.Logger) error {
	out := c.Stdout
	if out == nil {
		out = os.Stdout
	}

	var opts []typedef.DecoderOption
	if c.Schema {
		schema, err := typedef.NewSchema()
		if err != nil {
			return err
		}
		opts = append(opts, typedef.WithSchema(schema))
	}
	dec := typedef.NewDecoder(opts...)

	failed := 0
	for _, path := range c.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		defs, err := dec.ReadBatch(data)
		var batch *typedef.BatchError
		switch {
		case goerrors.As(err, &batch):
			failed += len(batch.Failures)
			for _, f := range batch.Failures {
				fmt.Fprintf(out, "%s: entry %d (%s): %v\n", path, f.Index, f.Name, f.Err)
			}
		case err != nil:
			return err
		}
		fmt.Fprintf(out, "%s: %d definitions ok\n", path, len(defs))
		log.Debug("validated", zap.String("file", path), zap.Int("ok", len(defs)))
	}

	if failed > 0 {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Detail("%d type definitions failed", failed).
			Build()
	}
	return nil
}

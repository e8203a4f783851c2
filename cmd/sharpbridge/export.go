package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/graphexport"
	"github.com/wippyai/sharpbridge/store"
	"github.com/wippyai/sharpbridge/typedef"
)

// ExportCmd writes the snapshot's type definitions as one JSON array.
type ExportCmd struct {
	Output string `short:"o" help:"Output file, '-' for stdout" default:"-"`
	Indent bool   `help:"Indent the JSON output"`
	Check  bool   `help:"Check every definition against the embedded schema" default:"true" negatable:""`
	Cache  string `help:"SQLite export cache; only changed definitions are written" type:"path"`
	Prune  bool   `help:"Drop cached definitions this export did not see"`

	Neo4j Neo4jOptions `embed:"" prefix:"neo4j."`

	Stdout io.Writer `kong:"-"`
}

// Neo4jOptions configure the optional graph sink.
type Neo4jOptions struct {
	URI      string `help:"Bolt URI; the graph sink is off when empty"`
	User     string `help:"User" default:"neo4j"`
	Password string `help:"Password" env:"NEO4J_PASSWORD"`
	Database string `help:"Database (server default when empty)"`
	Clean    bool   `help:"Remove previously loaded type nodes first"`
}

func (c *ExportCmd) Run(g *Globals, log *zap.Logger) error {
	ctx := context.Background()
	u, err := g.universe()
	if err != nil {
		return err
	}
	defs := typedef.Snapshot(u, g.Namer.namer())
	log.Info("snapshot converted", zap.Int("definitions", len(defs)))

	if c.Check {
		if err := checkSchema(defs); err != nil {
			return err
		}
	}

	out := defs
	if c.Cache != "" {
		out, err = c.filterCached(ctx, defs, log)
		if err != nil {
			return err
		}
	}

	data, err := typedef.WriteBatch(out)
	if err != nil {
		return err
	}
	if c.Indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	if err := c.write(append(data, '\n')); err != nil {
		return err
	}

	if c.Neo4j.URI != "" {
		return c.loadGraph(ctx, defs)
	}
	return nil
}

func checkSchema(defs []typedef.Definition) error {
	schema, err := typedef.NewSchema()
	if err != nil {
		return err
	}
	for _, def := range defs {
		data, err := typedef.Write(def)
		if err != nil {
			return err
		}
		if err := schema.Validate(def.TypeTag(), data); err != nil {
			return err
		}
	}
	return nil
}

func (c *ExportCmd) filterCached(ctx context.Context, defs []typedef.Definition, log *zap.Logger) ([]typedef.Definition, error) {
	s, err := store.Open(c.Cache)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	run, err := s.Begin(ctx)
	if err != nil {
		return nil, err
	}
	changed := make([]typedef.Definition, 0, len(defs))
	for _, def := range defs {
		ok, err := s.Record(ctx, run, def)
		if err != nil {
			return nil, err
		}
		if ok {
			changed = append(changed, def)
		}
	}

	stats := store.RunStats{Total: len(defs), Changed: len(changed)}
	if c.Prune {
		if stats.Pruned, err = s.Prune(ctx, run); err != nil {
			return nil, err
		}
	}
	if err := s.Finish(ctx, run, stats); err != nil {
		return nil, err
	}
	log.Info("export cache updated",
		zap.Stringer("run", run.ID),
		zap.Int("total", stats.Total),
		zap.Int("changed", stats.Changed),
		zap.Int("pruned", stats.Pruned))
	return changed, nil
}

func (c *ExportCmd) write(data []byte) error {
	if c.Output == "" || c.Output == "-" {
		w := c.Stdout
		if w == nil {
			w = os.Stdout
		}
		_, err := w.Write(data)
		return err
	}
	return os.WriteFile(c.Output, data, 0o644)
}

func (c *ExportCmd) loadGraph(ctx context.Context, defs []typedef.Definition) error {
	loader, err := graphexport.Connect(ctx, graphexport.Config{
		URI:      c.Neo4j.URI,
		User:     c.Neo4j.User,
		Password: c.Neo4j.Password,
		Database: c.Neo4j.Database,
	})
	if err != nil {
		return err
	}
	defer loader.Close(ctx)

	if c.Neo4j.Clean {
		if err := loader.Clean(ctx); err != nil {
			return err
		}
	}
	if err := loader.CreateIndexes(ctx); err != nil {
		return err
	}
	_, err = loader.Load(ctx, defs)
	return err
}

package graphexport

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/errors"
	"github.com/wippyai/sharpbridge/typedef"
)

const (
	cypherTypes = `UNWIND $batch AS row
MERGE (t:SharpType {full_name: row.full_name})
SET t.kind = row.kind, t.crc = row.crc, t.assembly = row.assembly, t.version = row.version`

	cypherMembers = `UNWIND $batch AS row
MATCH (t:SharpType {full_name: row.owner})
MERGE (m:SharpMember {key: row.key})
SET m += row
MERGE (t)-[:HAS_MEMBER]->(m)`

	cypherInherits = `UNWIND $batch AS row
MERGE (c:SharpType {full_name: row.child})
MERGE (p:SharpType {full_name: row.parent})
MERGE (c)-[:INHERITS]->(p)`
)

var indexes = []string{
	"CREATE INDEX sharp_type_name IF NOT EXISTS FOR (n:SharpType) ON (n.full_name)",
	"CREATE INDEX sharp_member_key IF NOT EXISTS FOR (n:SharpMember) ON (n.key)",
}

var cleanup = []string{
	"MATCH (n:SharpMember) DETACH DELETE n",
	"MATCH (n:SharpType) DETACH DELETE n",
}

// Runner executes one Cypher statement.
type Runner func(ctx context.Context, cypher string, params map[string]any) error

// Loader writes definitions through a Runner.
type Loader struct {
	run    Runner
	driver neo4j.DriverWithContext
}

// Config is the Neo4j connection.
type Config struct {
	URI      string `json:"uri" yaml:"uri" toml:"uri"`
	User     string `json:"user" yaml:"user" toml:"user"`
	Password string `json:"password" yaml:"password" toml:"password"`
	Database string `json:"database" yaml:"database" toml:"database"`
}

// Connect opens a driver and checks connectivity.
func Connect(ctx context.Context, cfg Config) (*Loader, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, errors.Load("create neo4j driver", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, errors.Load("connect to "+cfg.URI, err)
	}

	var opts []neo4j.ExecuteQueryConfigurationOption
	if cfg.Database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(cfg.Database))
	}
	run := func(ctx context.Context, cypher string, params map[string]any) error {
		_, err := neo4j.ExecuteQuery(ctx, driver, cypher, params, neo4j.EagerResultTransformer, opts...)
		return err
	}
	return &Loader{run: run, driver: driver}, nil
}

// NewLoader wraps an existing runner.
func NewLoader(run Runner) *Loader {
	return &Loader{run: run}
}

// Close releases the driver, if any.
func (l *Loader) Close(ctx context.Context) error {
	if l.driver == nil {
		return nil
	}
	return l.driver.Close(ctx)
}

func (l *Loader) exec(ctx context.Context, cypher string, params map[string]any) error {
	if err := l.run(ctx, cypher, params); err != nil {
		return errors.Wrap(errors.PhaseStore, errors.KindIO, err, "run cypher")
	}
	return nil
}

// CreateIndexes ensures the lookup indexes exist.
func (l *Loader) CreateIndexes(ctx context.Context) error {
	for _, q := range indexes {
		if err := l.exec(ctx, q, nil); err != nil {
			return err
		}
	}
	return nil
}

// Clean removes every node a previous load wrote.
func (l *Loader) Clean(ctx context.Context) error {
	Logger().Info("cleaning type graph")
	for _, q := range cleanup {
		if err := l.exec(ctx, q, nil); err != nil {
			return err
		}
	}
	return nil
}

// Load writes defs. Types go first so members and edges can match them.
func (l *Loader) Load(ctx context.Context, defs []typedef.Definition) (Stats, error) {
	g := Build(defs)
	steps := []struct {
		cypher string
		batch  []map[string]any
	}{
		{cypherTypes, g.Types},
		{cypherMembers, g.Members},
		{cypherInherits, g.Inherits},
	}
	for _, step := range steps {
		if len(step.batch) == 0 {
			continue
		}
		if err := l.exec(ctx, step.cypher, map[string]any{"batch": step.batch}); err != nil {
			return Stats{}, err
		}
	}
	stats := Stats{Types: len(g.Types), Members: len(g.Members), Inherits: len(g.Inherits)}
	Logger().Info("type graph loaded", zap.Stringer("stats", stats))
	return stats, nil
}

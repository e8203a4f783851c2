package graphexport

import (
	"context"
	goerrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/sharpbridge/errors"
	"github.com/wippyai/sharpbridge/reflection/snapshot"
	"github.com/wippyai/sharpbridge/typedef"
)

func engineDefs(t *testing.T) []typedef.Definition {
	t.Helper()
	u, err := snapshot.LoadFile("../reflection/snapshot/testdata/engine.yaml")
	require.NoError(t, err)
	return typedef.Snapshot(u, typedef.DefaultNamer())
}

func TestBuild(t *testing.T) {
	defs := engineDefs(t)
	g := Build(defs)

	require.Len(t, g.Types, len(defs))

	byName := map[string]map[string]any{}
	for _, row := range g.Types {
		byName[row["full_name"].(string)] = row
	}
	hero := byName["UnrealSharp.Game.AHero"]
	require.NotNil(t, hero)
	assert.Equal(t, "class", hero["kind"])
	assert.Equal(t, "UnrealSharp.GameScripts", hero["assembly"])

	assert.Contains(t, g.Inherits, map[string]any{
		"child":  "UnrealSharp.Game.AHero",
		"parent": "UnrealSharp.Engine.AActor",
	})
	assert.Contains(t, g.Inherits, map[string]any{
		"child":  "UnrealSharp.Engine.AActor",
		"parent": "UnrealSharp.CoreUObject.UObject",
	})
	for _, e := range g.Inherits {
		assert.NotEqual(t, "UnrealSharp.CoreUObject.UObject", e["child"], "roots have no parent")
	}

	keys := map[string]map[string]any{}
	for _, m := range g.Members {
		keys[m["key"].(string)] = m
	}
	green := keys[Key("UnrealSharp.Engine.EColor", MemberEnumField, "Green")]
	require.NotNil(t, green)
	assert.Equal(t, int64(1), green["value"])
	assert.Equal(t, 1, green["index"])

	z := keys[Key("UnrealSharp.CoreUObject.FVector", MemberProperty, "Z")]
	require.NotNil(t, z)
	assert.Equal(t, "double", z["type_name"])
	assert.Equal(t, 16, z["offset"])

	loc := keys[Key("UnrealSharp.Engine.AActor", MemberFunction, "GetActorLocation")]
	require.NotNil(t, loc)
	assert.Equal(t, "FVector", loc["return_type"])
	assert.Equal(t, "UnrealSharp.Engine.AActor", loc["owner"])
}

func TestBuildEmpty(t *testing.T) {
	g := Build(nil)
	assert.Empty(t, g.Types)
	assert.NotNil(t, g.Members)
	assert.NotNil(t, g.Inherits)
}

type call struct {
	cypher string
	params map[string]any
}

func recorder(calls *[]call, fail string) Runner {
	return func(_ context.Context, cypher string, params map[string]any) error {
		*calls = append(*calls, call{cypher, params})
		if fail != "" && cypher == fail {
			return goerrors.New("boom")
		}
		return nil
	}
}

func TestLoad(t *testing.T) {
	var calls []call
	l := NewLoader(recorder(&calls, ""))
	defs := engineDefs(t)

	stats, err := l.Load(context.Background(), defs)
	require.NoError(t, err)
	assert.Equal(t, len(defs), stats.Types)
	assert.Equal(t, 2, stats.Inherits)

	require.Len(t, calls, 3)
	assert.Equal(t, cypherTypes, calls[0].cypher)
	assert.Equal(t, cypherMembers, calls[1].cypher)
	assert.Equal(t, cypherInherits, calls[2].cypher)
	assert.Len(t, calls[0].params["batch"], len(defs))
	assert.Contains(t, stats.String(), "2 inherits edges")
	require.NoError(t, l.Close(context.Background()))
}

func TestLoadSkipsEmptyBatches(t *testing.T) {
	var calls []call
	l := NewLoader(recorder(&calls, ""))
	enum := &typedef.Enum{Base: typedef.Base{CSharpFullName: "N.E", AssemblyName: "A", GeneratorVersion: 1}}

	_, err := l.Load(context.Background(), []typedef.Definition{enum})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, cypherTypes, calls[0].cypher)
}

func TestLoadError(t *testing.T) {
	var calls []call
	l := NewLoader(recorder(&calls, cypherMembers))

	_, err := l.Load(context.Background(), engineDefs(t))
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseStore, Kind: errors.KindIO}))
	assert.Len(t, calls, 2, "stops at the failing step")
}

func TestIndexesAndClean(t *testing.T) {
	var calls []call
	l := NewLoader(recorder(&calls, ""))

	require.NoError(t, l.CreateIndexes(context.Background()))
	require.NoError(t, l.Clean(context.Background()))
	require.Len(t, calls, len(indexes)+len(cleanup))
	assert.Contains(t, calls[0].cypher, "SharpType")
	assert.Contains(t, calls[len(calls)-1].cypher, "DETACH DELETE")
}

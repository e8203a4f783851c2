package main

import (
	"bytes"
	"encoding/json"
	goerrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wippyai/sharpbridge/buildinfo"
	"github.com/wippyai/sharpbridge/errors"
	"github.com/wippyai/sharpbridge/interop"
	"github.com/wippyai/sharpbridge/reflection/snapshot"
	"github.com/wippyai/sharpbridge/typedef"
)

const snapshotPath = "../../reflection/snapshot/testdata/engine.yaml"

func snapshotDefs(t *testing.T) []typedef.Definition {
	t.Helper()
	u, err := snapshot.LoadFile(snapshotPath)
	require.NoError(t, err)
	return typedef.Snapshot(u, typedef.DefaultNamer())
}

func TestParseFlags(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("sharpbridge"))
	require.NoError(t, err)

	ctx, err := parser.Parse([]string{
		"--log.level", "debug",
		"--namer.root-namespace", "Game",
		"export", "--no-check", "--neo4j.uri", "bolt://localhost:7687",
	})
	require.NoError(t, err)
	assert.Equal(t, "export", ctx.Command())
	assert.Equal(t, "debug", cli.Log.Level)
	assert.Equal(t, "Game", cli.Namer.RootNamespace)
	assert.False(t, cli.Export.Check)
	assert.Equal(t, "-", cli.Export.Output)
	assert.Equal(t, "bolt://localhost:7687", cli.Export.Neo4j.URI)
	assert.Equal(t, "neo4j", cli.Export.Neo4j.User)

	_, err = parser.Parse([]string{"--log.level", "loud", "export"})
	assert.Error(t, err)
}

func TestNamerOverrides(t *testing.T) {
	def := typedef.DefaultNamer()
	assert.Equal(t, def, NamerOptions{}.namer())

	n := NamerOptions{RootNamespace: "Game", EngineModules: []string{"Engine"}}.namer()
	assert.Equal(t, "Game", n.RootNamespace)
	assert.Equal(t, []string{"Engine"}, n.EngineModules)
	assert.Equal(t, def.EngineAssembly, n.EngineAssembly)
}

func TestUniverseNeedsSnapshot(t *testing.T) {
	_, err := (&Globals{}).universe()
	assert.ErrorIs(t, err, errNoSnapshot)

	_, err = (&Globals{Snapshot: filepath.Join(t.TempDir(), "missing.yaml")}).universe()
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindInvalidData}))
}

func TestExportStdout(t *testing.T) {
	var out bytes.Buffer
	cmd := &ExportCmd{Output: "-", Check: true, Stdout: &out}
	require.NoError(t, cmd.Run(&Globals{Snapshot: snapshotPath}, zap.NewNop()))

	defs, err := typedef.ReadBatch(out.Bytes())
	require.NoError(t, err)
	assert.Len(t, defs, len(snapshotDefs(t)))
}

func TestExportIndent(t *testing.T) {
	var out bytes.Buffer
	cmd := &ExportCmd{Output: "-", Stdout: &out}
	require.NoError(t, cmd.Run(&Globals{Snapshot: snapshotPath}, zap.NewNop()))
	assert.True(t, strings.HasPrefix(out.String(), `[{"$type":`))
	assert.NotContains(t, out.String(), "\n  {")

	out.Reset()
	cmd.Indent = true
	require.NoError(t, cmd.Run(&Globals{Snapshot: snapshotPath}, zap.NewNop()))
	assert.True(t, strings.HasPrefix(out.String(), "[\n  {"))
}

func TestExportCache(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "types.json")
	cmd := &ExportCmd{Output: output, Cache: filepath.Join(dir, "cache.db"), Prune: true}
	g := &Globals{Snapshot: snapshotPath}

	require.NoError(t, cmd.Run(g, zap.NewNop()))
	var first []json.RawMessage
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &first))
	assert.Len(t, first, len(snapshotDefs(t)))

	// Nothing changed, so nothing is written the second time.
	require.NoError(t, cmd.Run(g, zap.NewNop()))
	var second []json.RawMessage
	data, err = os.ReadFile(output)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &second))
	assert.Empty(t, second)
}

func TestExportNoSnapshot(t *testing.T) {
	err := (&ExportCmd{}).Run(&Globals{}, zap.NewNop())
	assert.ErrorIs(t, err, errNoSnapshot)
}

func TestValidateReportsBadEntries(t *testing.T) {
	defs := snapshotDefs(t)
	good, err := typedef.Write(defs[0])
	require.NoError(t, err)

	dir := t.TempDir()
	okFile := filepath.Join(dir, "ok.json")
	badFile := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(okFile, []byte("["+string(good)+"]"), 0o644))
	bad := `[` + string(good) + `, {"$type": "Nope", "CSharpFullName": "Bad.Entry"}]`
	require.NoError(t, os.WriteFile(badFile, []byte(bad), 0o644))

	var out bytes.Buffer
	cmd := &ValidateCmd{Files: []string{okFile}, Schema: true, Stdout: &out}
	require.NoError(t, cmd.Run(zap.NewNop()))
	assert.Contains(t, out.String(), okFile+": 1 definitions ok")

	out.Reset()
	cmd.Files = []string{okFile, badFile}
	err = cmd.Run(zap.NewNop())
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindInvalidData}))
	assert.Contains(t, out.String(), badFile+": entry 1 (Bad.Entry)")
	assert.Contains(t, out.String(), badFile+": 1 definitions ok")
}

func TestValidateRejectsNonArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obj.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	err := (&ValidateCmd{Files: []string{path}, Stdout: &bytes.Buffer{}}).Run(zap.NewNop())
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindInvalidData}))
}

func TestFunctionsTable(t *testing.T) {
	var out bytes.Buffer
	cmd := &FunctionsCmd{Stdout: &out}
	require.NoError(t, cmd.Run(&Globals{Snapshot: snapshotPath}, zap.NewNop()))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, out.String(), interop.NameValidateBuildInfo)
	assert.Contains(t, out.String(), "func(s32, s32, bool)")
}

func TestFunctionsJSON(t *testing.T) {
	var out bytes.Buffer
	cmd := &FunctionsCmd{JSON: true, Stdout: &out}
	require.NoError(t, cmd.Run(&Globals{Snapshot: snapshotPath}, zap.NewNop()))

	var rows []functionRow
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	var found bool
	for _, r := range rows {
		if r.Name == interop.NameInteropFunctionPointer {
			found = true
			assert.Equal(t, "func(u64, string) -> u64", r.Signature)
			assert.Equal(t, []string{"instance", "name"}, r.Params)
			assert.True(t, strings.HasPrefix(r.Address, "0x"))
		}
	}
	assert.True(t, found)
}

func TestDescribe(t *testing.T) {
	row := describe(interop.Function{Name: "mono_jit_cleanup", Addr: 0x1000})
	assert.Equal(t, "native", row.Signature)
	assert.Equal(t, "0x1000", row.Address)

	row = describe(interop.Function{Name: "bad", Fn: func(map[string]int) {}})
	assert.Equal(t, "unsupported", row.Signature)
}

func TestCheckBuild(t *testing.T) {
	native := buildinfo.Native()

	var out bytes.Buffer
	cmd := &CheckBuildCmd{Configuration: native.Configuration.String(), Editor: native.WithEditor, Stdout: &out}
	require.NoError(t, cmd.Run(zap.NewNop()))
	assert.Contains(t, out.String(), "ok")

	other := buildinfo.ConfigurationShipping
	if native.Configuration == other {
		other = buildinfo.ConfigurationDebug
	}
	out.Reset()
	cmd.Configuration = other.String()
	require.NoError(t, cmd.Run(zap.NewNop()))
	assert.Contains(t, out.String(), "warning: configuration differs")

	cmd.Editor = !native.WithEditor
	err := cmd.Run(zap.NewNop())
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindFatalConfig}))

	cmd = &CheckBuildCmd{Platform: "Atari", Configuration: "Development", Stdout: &out}
	err = cmd.Run(zap.NewNop())
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindInvalidEnum}))
}

func TestCheckBuildRecord(t *testing.T) {
	data, err := buildinfo.Native().MarshalBinary()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "build.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	var out bytes.Buffer
	require.NoError(t, (&CheckBuildCmd{Record: path, Stdout: &out}).Run(zap.NewNop()))
	assert.Contains(t, out.String(), "ok")

	require.NoError(t, os.WriteFile(path, data[:4], 0o644))
	assert.Error(t, (&CheckBuildCmd{Record: path, Stdout: &out}).Run(zap.NewNop()))
}

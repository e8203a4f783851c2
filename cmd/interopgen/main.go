// Command interopgen expands an interop manifest into the Go table that
// registers every listed native function.
//
//	go run ./cmd/interopgen -manifest natives/manifest.yaml -out natives/functions_gen.go
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"
	"gopkg.in/yaml.v3"
)

// Manifest is the single source of truth for the generated table.
type Manifest struct {
	Package   string  `yaml:"package"`
	Receiver  string  `yaml:"receiver"`
	Functions []Entry `yaml:"functions"`
}

type Entry struct {
	Name   string  `yaml:"name"`
	Params []Param `yaml:"params"`
	Result string  `yaml:"result"`
}

type Param struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

func main() {
	var (
		manifestPath = flag.String("manifest", "manifest.yaml", "Path to the interop manifest")
		outPath      = flag.String("out", "functions_gen.go", "Generated Go file")
	)
	flag.Parse()

	if err := run(*manifestPath, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "interopgen: %v\n", err)
		os.Exit(1)
	}
}

func run(manifestPath, outPath string) error {
	m, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}
	src, err := generate(m, filepath.Base(manifestPath))
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, src, 0o644)
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return parseManifest(data)
}

func parseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if !token.IsIdentifier(m.Package) {
		return fmt.Errorf("package %q is not an identifier", m.Package)
	}
	if !token.IsExported(m.Receiver) {
		return fmt.Errorf("receiver %q must be an exported type", m.Receiver)
	}
	if len(m.Functions) == 0 {
		return fmt.Errorf("manifest lists no functions")
	}
	seen := make(map[string]bool, len(m.Functions))
	for i, f := range m.Functions {
		if !token.IsExported(f.Name) {
			return fmt.Errorf("function %d: %q must be exported", i, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("function %q listed twice", f.Name)
		}
		seen[f.Name] = true
		for _, p := range f.Params {
			if !token.IsIdentifier(p.Name) || p.Type == "" {
				return fmt.Errorf("function %q: bad parameter %q %q", f.Name, p.Name, p.Type)
			}
		}
	}
	return nil
}

// GoType is the func type of the entry, e.g. "func(Handle, int32) string".
func (e Entry) GoType() string {
	types := make([]string, len(e.Params))
	for i, p := range e.Params {
		types[i] = p.Type
	}
	sig := "func(" + strings.Join(types, ", ") + ")"
	if e.Result != "" {
		sig += " " + e.Result
	}
	return sig
}

// ParamNames renders the quoted parameter names.
func (e Entry) ParamNames() string {
	names := make([]string, len(e.Params))
	for i, p := range e.Params {
		names[i] = fmt.Sprintf("%q", p.Name)
	}
	return strings.Join(names, ", ")
}

var tableTemplate = template.Must(template.New("table").Parse(`// Code generated by interopgen from {{.Source}}. DO NOT EDIT.

package {{.Package}}

import "github.com/wippyai/sharpbridge/interop"

// Names lists every generated interop function in manifest order.
var Names = []string{
{{- range .Functions}}
	"{{.Name}}",
{{- end}}
}

// API is the typed view of the generated functions, filled by interop.Bind.
type API struct {
{{- range .Functions}}
	{{.Name}} {{.GoType}}
{{- end}}
}

// Functions returns the generated interop table bound to u.
func (u *{{.Receiver}}) Functions() []interop.Function {
	return []interop.Function{
{{- range .Functions}}
		{Name: "{{.Name}}", Fn: u.{{.Name}}, ParamNames: []string{ {{- .ParamNames -}} }},
{{- end}}
	}
}
`))

func generate(m *Manifest, source string) ([]byte, error) {
	var buf bytes.Buffer
	err := tableTemplate.Execute(&buf, struct {
		*Manifest
		Source string
	}{m, source})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	// imports.Process prunes unused imports and gofmts the result.
	out, err := imports.Process("functions_gen.go", buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: false,
	})
	if err != nil {
		return nil, fmt.Errorf("format generated code: %w", err)
	}
	return out, nil
}

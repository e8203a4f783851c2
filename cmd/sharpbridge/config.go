package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// ConfigCmd groups config subcommands.
type ConfigCmd struct {
	Init ConfigInit `cmd:"" help:"Write a configuration template"`
}

// ConfigInit writes the shared options plus one command's options as a
// template with every default filled in.
type ConfigInit struct {
	Command string `arg:"" help:"Command to template" enum:"export,functions,run,host"`
	Format  string `help:"Output format" enum:"json,yaml,yml,toml" default:"yaml"`
	Output  string `help:"Destination file (defaults to sharpbridge.<ext> in the working directory)"`
	Force   bool   `help:"Overwrite an existing file"`
}

var templateCommands = map[string]reflect.Type{
	"export":    reflect.TypeOf(ExportCmd{}),
	"functions": reflect.TypeOf(FunctionsCmd{}),
	"run":       reflect.TypeOf(RunCmd{}),
	"host":      reflect.TypeOf(HostCmd{}),
}

func (c *ConfigInit) Run() error {
	format := normalizeFormat(c.Format)
	if format == "" {
		return fmt.Errorf("unsupported format: %s", c.Format)
	}
	cmd, ok := templateCommands[c.Command]
	if !ok {
		return fmt.Errorf("no template for command %q", c.Command)
	}

	root := buildMapFromStruct(reflect.TypeOf(Globals{}))
	delete(root, "config")
	root[c.Command] = buildMapFromStruct(cmd)

	dest := c.Output
	if dest == "" {
		dest = "sharpbridge." + format
	}
	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return fmt.Errorf("%s exists; use --force to overwrite", dest)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	data, err := encodeTemplate(root, format)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

func encodeTemplate(root map[string]any, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(root)
	case "toml":
		return toml.Marshal(root)
	default:
		return json.MarshalIndent(root, "", "  ")
	}
}

func normalizeFormat(f string) string {
	switch strings.ToLower(f) {
	case "json":
		return "json"
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	}
	return ""
}

// configKey turns a Go field name into its kong flag name: MemoryLimitPages
// becomes memory-limit-pages.
func configKey(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper {
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			prevLower := i > 0 && runes[i-1] >= 'a' && runes[i-1] <= 'z'
			if i > 0 && (prevLower || nextLower) {
				b.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func buildMapFromStruct(t reflect.Type) map[string]any {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := map[string]any{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("kong") == "-" {
			continue
		}
		if _, ok := f.Tag.Lookup("arg"); ok {
			continue
		}
		if _, ok := f.Tag.Lookup("cmd"); ok {
			continue
		}

		if _, ok := f.Tag.Lookup("embed"); ok {
			sub := buildMapFromStruct(f.Type)
			if name := strings.TrimSuffix(f.Tag.Get("prefix"), "."); name != "" {
				out[name] = sub
			} else {
				for k, v := range sub {
					out[k] = v
				}
			}
			continue
		}

		name := f.Tag.Get("name")
		if name == "" {
			name = configKey(f.Name)
		}
		if val := defaultValue(f.Type, f.Tag.Get("default")); val != nil {
			out[name] = val
		}
	}
	return out
}

func defaultValue(t reflect.Type, def string) any {
	switch t.Kind() {
	case reflect.String:
		return def
	case reflect.Bool:
		b, _ := strconv.ParseBool(def)
		return b
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, _ := strconv.ParseInt(def, 10, 64)
		return n
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, _ := strconv.ParseUint(def, 10, 64)
		return n
	case reflect.Slice:
		if def == "" {
			return []string{}
		}
		return strings.Split(def, ",")
	case reflect.Map:
		return map[string]string{}
	case reflect.Struct:
		return buildMapFromStruct(t)
	}
	return nil
}

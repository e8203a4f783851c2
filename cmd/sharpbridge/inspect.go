package main

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/sharpbridge/interop"
)

// InspectCmd browses the registry and calls functions interactively. It
// prints the function table when stdout is not a terminal.
type InspectCmd struct {
	Runtime RuntimeOptions `embed:"" prefix:"runtime."`
}

func (c *InspectCmd) Run(g *Globals, log *zap.Logger) error {
	s, err := g.open(log, c.Runtime)
	if err != nil {
		return err
	}
	defer s.Close()

	fns := s.bridge.Registry().Functions()
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return printFunctions(os.Stdout, fns, false)
	}
	p := tea.NewProgram(newInspectModel(g.Snapshot, fns), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type inspectModel struct {
	err      error
	source   string
	result   string
	funcs    []funcInfo
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type funcInfo struct {
	fn         interop.Function
	resultType string
	params     []paramInfo
	// native entries have no Go value and cannot be called from here
	native bool
}

type paramInfo struct {
	name    string
	witType wit.Type
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

type callResultMsg struct {
	err    error
	result string
}

func newInspectModel(source string, fns []interop.Function) *inspectModel {
	m := &inspectModel{source: source, state: stateSelectFunc}
	for _, f := range fns {
		m.funcs = append(m.funcs, funcInfoOf(f))
	}
	return m
}

func funcInfoOf(f interop.Function) funcInfo {
	fi := funcInfo{fn: f, native: f.Fn == nil}
	if fi.native {
		return fi
	}
	sig, err := interop.SignatureOf(f.Fn)
	if err != nil {
		fi.native = true
		return fi
	}
	for i, p := range sig.Params {
		name := "arg" + strconv.Itoa(i)
		if i < len(f.ParamNames) && f.ParamNames[i] != "" {
			name = f.ParamNames[i]
		}
		fi.params = append(fi.params, paramInfo{name: name, witType: p})
	}
	if len(sig.Results) > 0 {
		fi.resultType = interop.TypeName(sig.Results[0])
	}
	return fi
}

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state != stateInputArgs || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				if len(m.funcs) == 0 {
					return m, nil
				}
				if m.funcs[m.selected].native {
					m.err = fmt.Errorf("%s is a native entry point", m.funcs[m.selected].fn.Name)
					m.state = stateShowResult
					return m, nil
				}
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *inspectModel) prepareInputs() {
	f := m.funcs[m.selected]
	m.inputs = make([]textinput.Model, len(f.params))
	for i, p := range f.params {
		ti := textinput.New()
		ti.Placeholder = interop.TypeName(p.witType)
		ti.Prompt = p.name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *inspectModel) callFunction() tea.Msg {
	f := m.funcs[m.selected]
	values := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		values[i] = input.Value()
	}
	result, err := callInterop(f, values)
	return callResultMsg{result: result, err: err}
}

// callInterop parses values by WIT type and calls f.
func callInterop(f funcInfo, values []string) (result string, err error) {
	if f.native {
		return "", fmt.Errorf("%s is a native entry point", f.fn.Name)
	}
	fn := reflect.ValueOf(f.fn.Fn)
	ft := fn.Type()
	if len(values) != ft.NumIn() {
		return "", fmt.Errorf("%s takes %d arguments, got %d", f.fn.Name, ft.NumIn(), len(values))
	}

	args := make([]reflect.Value, len(values))
	for i, v := range values {
		arg, err := convertArg(v, f.params[i].witType)
		if err != nil {
			return "", fmt.Errorf("%s: %w", f.params[i].name, err)
		}
		args[i] = reflect.ValueOf(arg).Convert(ft.In(i))
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", f.fn.Name, r)
		}
	}()
	out := fn.Call(args)
	if len(out) == 0 {
		return "(no result)", nil
	}
	if out[0].Kind() == reflect.String {
		return strconv.Quote(out[0].String()), nil
	}
	return fmt.Sprintf("%v", out[0].Interface()), nil
}

func convertArg(value string, t wit.Type) (any, error) {
	switch t.(type) {
	case wit.String:
		return value, nil
	case wit.U8, wit.U16, wit.U32:
		v, err := strconv.ParseUint(value, 10, 32)
		return uint32(v), err
	case wit.S8, wit.S16, wit.S32:
		v, err := strconv.ParseInt(value, 10, 32)
		return int32(v), err
	case wit.U64:
		v, err := strconv.ParseUint(value, 0, 64)
		return v, err
	case wit.S64:
		v, err := strconv.ParseInt(value, 10, 64)
		return v, err
	case wit.F32:
		v, err := strconv.ParseFloat(value, 32)
		return float32(v), err
	case wit.F64:
		v, err := strconv.ParseFloat(value, 64)
		return v, err
	case wit.Bool:
		return strconv.ParseBool(value)
	default:
		return value, nil
	}
}

func (m *inspectModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Interop Registry"))
	b.WriteString(" ")
	b.WriteString(m.source)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		if len(m.funcs) == 0 {
			b.WriteString("Registry is empty.\n\n")
			b.WriteString(helpStyle.Render("q quit"))
			return b.String()
		}
		b.WriteString("Select a function to call:\n\n")
		for i, f := range m.funcs {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + m.formatFunc(f)))
			} else {
				b.WriteString("  " + m.formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(f.fn.Name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(interop.TypeName(f.params[i].witType)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.fn.Name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *inspectModel) formatFunc(f funcInfo) string {
	if f.native {
		return funcStyle.Render(f.fn.Name) + typeStyle.Render(fmt.Sprintf(" native %#x", uintptr(f.fn.Addr)))
	}
	var params []string
	for _, p := range f.params {
		params = append(params, p.name+": "+typeStyle.Render(interop.TypeName(p.witType)))
	}
	result := ""
	if f.resultType != "" {
		result = " -> " + typeStyle.Render(f.resultType)
	}
	return funcStyle.Render(f.fn.Name) + "(" + strings.Join(params, ", ") + ")" + result
}

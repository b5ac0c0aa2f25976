package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skybison/corevm/bytecode"
	"github.com/skybison/corevm/frame"
	"github.com/skybison/corevm/interp"
	"github.com/skybison/corevm/machine"
	"github.com/skybison/corevm/object"
	"github.com/skybison/corevm/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	opStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const historyLimit = 12

// model is the stepping debugger's bubbletea state: one frame, stepped
// one instruction at a time through the reference interpreter (never
// the handler-threaded table, so every step is exactly one opcode
// regardless of dispatch strategy).
type model struct {
	rt *runtime.Runtime
	fn *bytecode.Function
	f  *frame.Frame

	steps    int
	history  []string
	done     bool
	result   object.Ref
	runErr   error
}

func newModel(rt *runtime.Runtime, fn *bytecode.Function, f *frame.Frame) *model {
	return &model{rt: rt, fn: fn, f: f}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "n", " ":
		m.step()
	case "c":
		for !m.done && m.steps < 100000 {
			m.step()
		}
	}
	return m, nil
}

// step executes exactly one instruction via the reference interpreter,
// recording a disassembly line for the history panel.
func (m *model) step() {
	if m.done {
		return
	}
	inst, _ := bytecode.DecodeAt(m.fn.Bytecode, m.f.PC)
	line := m.fn.Code.LineForPC(m.f.PC)
	entry := fmt.Sprintf("%4d  L%-4d %s %d", inst.Pos, line, inst.Op, inst.Arg)
	if m.rt.Mach.Counting {
		m.rt.Mach.Counts[inst.Op]++
	}

	cont, result, err := m.rt.Interp.Step(m.f)
	m.steps++
	m.history = append(m.history, entry)
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}

	switch cont {
	case interp.Next:
		return
	case interp.Return, interp.Yield:
		m.done = true
		m.result = result
		m.rt.Interp.Thread.PopFrame()
	case interp.Unwind:
		m.done = true
		m.runErr = err
		m.rt.Interp.Thread.PopFrame()
	}
}

func (m *model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("corevmtrace"))
	b.WriteString(" ")
	b.WriteString(m.fn.Name)
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("step %d   pc %d   locals %s\n\n",
		m.steps, m.f.PC, valueStyle.Render(renderRefs(m.f.Locals))))

	b.WriteString("stack: ")
	b.WriteString(valueStyle.Render(renderRefs(m.f.ValueStack())))
	b.WriteString("\n\n")

	b.WriteString("history:\n")
	for _, line := range m.history {
		b.WriteString(opStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.rt.Mach.Counting {
		_, specializedCount := machine.ParseLayout(m.rt.Mach.Layout())
		b.WriteString(fmt.Sprintf("dispatch counts (%d/256 opcodes specialized):\n", specializedCount))
		for i := 0; i < 256; i++ {
			op := bytecode.Op(i)
			if m.rt.Mach.Counts[op] > 0 {
				b.WriteString(fmt.Sprintf("  %-24s %d\n", op, m.rt.Mach.Counts[op]))
			}
		}
		b.WriteString("\n")
	}

	if m.done {
		if m.runErr != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("unhandled exception: %v", m.runErr)))
		} else {
			b.WriteString(resultStyle.Render(fmt.Sprintf("result: %s", renderRef(m.result))))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("q quit"))
		return b.String()
	}

	b.WriteString(helpStyle.Render("n/space step • c run to completion • q quit"))
	return b.String()
}

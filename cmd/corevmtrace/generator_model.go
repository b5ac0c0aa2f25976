package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/skybison/corevm/object"
	"github.com/skybison/corevm/runtime"
)

// generatorModel drives a generator-flagged module's code through
// repeated Send calls instead of single-stepping: each yield pauses for
// an operator-supplied integer to send back in, mirroring how a host
// embedding this engine would actually drive a coroutine (spec's
// yield/send protocol), rather than single-stepping its bytecode.
type generatorModel struct {
	rt  *runtime.Runtime
	ref object.Ref

	input textinput.Model

	rounds   int
	lastYield string
	done      bool
	result    string
	err       error
}

func newGeneratorModel(rt *runtime.Runtime, ref object.Ref) *generatorModel {
	ti := textinput.New()
	ti.Placeholder = "value to send (integer, or blank for None)"
	ti.Prompt = "send> "
	ti.Focus()
	return &generatorModel{rt: rt, ref: ref, input: ti}
}

func (m *generatorModel) Init() tea.Cmd { return nil }

func (m *generatorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "enter":
		if !m.done {
			m.send()
		}
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *generatorModel) send() {
	sent := object.None
	if text := strings.TrimSpace(m.input.Value()); text != "" {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil && object.FitsSmallInt(n) {
			sent = object.NewSmallInt(n)
		}
	}
	m.input.SetValue("")

	value, ok, err := m.rt.Send(m.ref, sent)
	m.rounds++
	if err != nil {
		m.done = true
		m.err = err
		return
	}
	if !ok {
		m.done = true
		m.result = renderRef(value)
		return
	}
	m.lastYield = renderRef(value)
}

func (m *generatorModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("corevmtrace (generator)"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("round %d\n", m.rounds))
	if m.lastYield != "" {
		b.WriteString(fmt.Sprintf("yielded: %s\n\n", opStyle.Render(m.lastYield)))
	}

	if m.done {
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("unhandled exception: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(fmt.Sprintf("returned: %s", m.result)))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("q quit"))
		return b.String()
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("enter send • q quit"))
	return b.String()
}

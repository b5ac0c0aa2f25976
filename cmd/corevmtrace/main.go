// Command corevmtrace is a single-step debugger for persisted modules:
// load one, then step its top-level code one instruction at a time,
// watching the value stack and locals evolve (teacher
// idiom: cmd/run's -i interactive TUI, repointed from a WASM
// function-call picker to an opcode-level stepper, since this engine
// has no component exports to list — only one top-level frame to walk).
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/skybison/corevm/bytecode"
	"github.com/skybison/corevm/runtime"
	"github.com/skybison/corevm/runtimetables"
)

func main() {
	var (
		path       = flag.String("module", "", "Path to a persisted module file (spec §6 format)")
		name       = flag.String("name", "<string>", "Module name to run it under")
		heapBytes  = flag.Int("heap", 4<<20, "Heap semispace size in bytes")
		countOps   = flag.Bool("count", false, "Tally opcode dispatch counts via the handler-threaded table")
	)
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "Usage: corevmtrace -module <file> [-name modname] [-heap bytes] [-count]")
		os.Exit(1)
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "corevmtrace requires an interactive terminal on stdout")
		os.Exit(1)
	}

	if err := run(*path, *name, *heapBytes, *countOps); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path, name string, heapBytes int, countOps bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	rt, err := runtime.New(runtime.Config{HeapBytes: heapBytes})
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	rt.Mach.Counting = countOps

	code, err := rt.Decode(data)
	if err != nil {
		return fmt.Errorf("decode module: %w", err)
	}

	mod := runtimetables.NewModule(name)
	fn := bytecode.NewFunction(name, code, mod, nil)

	var m tea.Model
	if code.Flags.Has(bytecode.FlagGenerator) {
		ref := rt.NewGenerator(fn)
		m = newGeneratorModel(rt, ref)
	} else {
		f, err := rt.Interp.Thread.PushFrame(fn, code.NumLocals)
		if err != nil {
			return fmt.Errorf("push frame: %w", err)
		}
		m = newModel(rt, fn, f)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// Package testrunner is the golden-file end-to-end harness: it compiles
// every program under a testdata directory and runs a per-case check
// against the resulting IR module, fanning the independent compiles out
// concurrently.
//
// The compiler's own scope ends at an in-memory IR module (object-file
// emission is an external collaborator, per spec.md), so "golden" here
// means structural properties of the emitted IR -- the right runtime
// calls, the right control-flow shape -- rather than executing the
// program and diffing captured stdout.
package testrunner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rihafilip/mila/internal/compiler"
	"github.com/rihafilip/mila/internal/ir"
)

// Case is one golden-file check: Name identifies the source file
// (without extension) under Dir, and Check inspects the compiled
// module, returning a descriptive error on mismatch.
type Case struct {
	Name  string
	Check func(*ir.Module) error
}

// Outcome is the result of running one Case.
type Outcome struct {
	Case Case
	Err  error
}

// Run compiles every "<name>.mila" file under dir whose name matches a
// Case and evaluates that Case's Check concurrently, mirroring the
// fan-out-with-shared-context pattern used for independent per-item
// work elsewhere in the corpus.
func Run(dir string, cases []Case) ([]Outcome, error) {
	outcomes := make([]Outcome, len(cases))

	g, _ := errgroup.WithContext(context.Background())
	for i, c := range cases {
		i, c := i, c
		g.Go(func() error {
			path := filepath.Join(dir, c.Name+".mila")
			source, err := os.ReadFile(path)
			if err != nil {
				outcomes[i] = Outcome{Case: c, Err: fmt.Errorf("reading %s: %w", path, err)}
				return nil
			}

			result, err := compiler.Compile(string(source), path)
			if err != nil {
				outcomes[i] = Outcome{Case: c, Err: fmt.Errorf("compiling %s: %w", path, err)}
				return nil
			}

			if err := c.Check(result.Module); err != nil {
				outcomes[i] = Outcome{Case: c, Err: err}
				return nil
			}

			outcomes[i] = Outcome{Case: c}
			return nil
		})
	}
	// Every goroutine reports its own failure into its outcome slot and
	// always returns nil, so one case's failure never aborts the rest;
	// g.Wait's error is always nil and exists only to join the group.
	_ = g.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Case.Name < outcomes[j].Case.Name })
	return outcomes, nil
}

// Failures filters outcomes down to the ones that failed, for callers
// that want a short failure report rather than the full result set.
func Failures(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// FindFunction looks up a lowered function by name, typically "main" or
// a user-declared procedure/function, inside a module.
func FindFunction(m *ir.Module, name string) (*ir.Function, bool) {
	for _, fn := range m.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return nil, false
}

// CountCalls returns how many times a function in the module calls
// callee (by name), across every block.
func CountCalls(fn *ir.Function, callee string) int {
	n := 0
	for _, bb := range fn.Blocks {
		for _, instr := range bb.Instrs {
			if c, ok := instr.(*ir.Call); ok && c.Callee == callee {
				n++
			}
		}
	}
	return n
}

// EveryBlockTerminated reports whether every block in fn ends in a
// terminator, the dominance/termination invariant spec.md §8 requires
// of every emitted function.
func EveryBlockTerminated(fn *ir.Function) error {
	for _, bb := range fn.Blocks {
		if !bb.Terminated() {
			return fmt.Errorf("block %q in function %q has no terminator", bb.Label, fn.Name)
		}
	}
	return nil
}

package testrunner

import (
	"fmt"
	"testing"

	"github.com/rihafilip/mila/internal/ir"
)

func TestGoldenPrograms(t *testing.T) {
	cases := []Case{
		{
			Name: "01_const_fold_call",
			Check: func(m *ir.Module) error {
				fn, ok := FindFunction(m, "main")
				if !ok {
					return fmt.Errorf("missing function %q", "main")
				}
				if got := CountCalls(fn, "writeln"); got != 1 {
					return fmt.Errorf("expected 1 call to writeln, got %d", got)
				}
				return EveryBlockTerminated(fn)
			},
		},
		{
			Name: "02_for_to",
			Check: func(m *ir.Module) error {
				fn, ok := FindFunction(m, "main")
				if !ok {
					return fmt.Errorf("missing function %q", "main")
				}
				// for-to desugars into a header/body/end loop, so more
				// than one basic block is expected beyond entry/exit.
				if len(fn.Blocks) < 5 {
					return fmt.Errorf("expected at least 5 blocks in main, got %d", len(fn.Blocks))
				}
				if got := CountCalls(fn, "writeln"); got != 1 {
					return fmt.Errorf("expected 1 call to writeln, got %d", got)
				}
				return EveryBlockTerminated(fn)
			},
		},
		{
			Name: "03_while_loop",
			Check: func(m *ir.Module) error {
				fn, ok := FindFunction(m, "main")
				if !ok {
					return fmt.Errorf("missing function %q", "main")
				}
				if got := CountCalls(fn, "writeln"); got != 1 {
					return fmt.Errorf("expected 1 call to writeln, got %d", got)
				}
				return EveryBlockTerminated(fn)
			},
		},
		{
			Name: "04_function_self_assign",
			Check: func(m *ir.Module) error {
				f, ok := FindFunction(m, "f")
				if !ok {
					return fmt.Errorf("missing function %q", "f")
				}
				if f.ReturnType == nil {
					return fmt.Errorf("function f should have a non-nil return type")
				}
				if err := EveryBlockTerminated(f); err != nil {
					return err
				}
				fn, ok := FindFunction(m, "main")
				if !ok {
					return fmt.Errorf("missing function %q", "main")
				}
				if got := CountCalls(fn, "f"); got != 1 {
					return fmt.Errorf("expected 1 call to f, got %d", got)
				}
				return EveryBlockTerminated(fn)
			},
		},
		{
			Name: "05_array_low_bound",
			Check: func(m *ir.Module) error {
				fn, ok := FindFunction(m, "main")
				if !ok {
					return fmt.Errorf("missing function %q", "main")
				}
				if got := CountCalls(fn, "writeln"); got != 1 {
					return fmt.Errorf("expected 1 call to writeln, got %d", got)
				}
				return EveryBlockTerminated(fn)
			},
		},
		{
			Name: "06_named_constant",
			Check: func(m *ir.Module) error {
				fn, ok := FindFunction(m, "main")
				if !ok {
					return fmt.Errorf("missing function %q", "main")
				}
				// if/else lowers to then/else/merge blocks.
				if len(fn.Blocks) < 5 {
					return fmt.Errorf("expected at least 5 blocks in main, got %d", len(fn.Blocks))
				}
				if got := CountCalls(fn, "writeln"); got != 1 {
					return fmt.Errorf("expected 1 call to writeln, got %d", got)
				}
				return EveryBlockTerminated(fn)
			},
		},
		{
			Name: "07_array_2d",
			Check: func(m *ir.Module) error {
				fn, ok := FindFunction(m, "main")
				if !ok {
					return fmt.Errorf("missing function %q", "main")
				}
				// two nested for-to loops each desugar into their own
				// header/body/end blocks.
				if len(fn.Blocks) < 8 {
					return fmt.Errorf("expected at least 8 blocks in main, got %d", len(fn.Blocks))
				}
				if got := CountCalls(fn, "writeln"); got != 1 {
					return fmt.Errorf("expected 1 call to writeln, got %d", got)
				}
				return EveryBlockTerminated(fn)
			},
		},
		{
			Name: "08_xor_and_parameterless_proc",
			Check: func(m *ir.Module) error {
				greet, ok := FindFunction(m, "greet")
				if !ok {
					return fmt.Errorf("missing function %q", "greet")
				}
				if len(greet.Params) != 0 {
					return fmt.Errorf("expected greet to take 0 parameters, got %d", len(greet.Params))
				}
				if err := EveryBlockTerminated(greet); err != nil {
					return err
				}
				fn, ok := FindFunction(m, "main")
				if !ok {
					return fmt.Errorf("missing function %q", "main")
				}
				if got := CountCalls(fn, "greet"); got != 1 {
					return fmt.Errorf("expected 1 call to greet, got %d", got)
				}
				if got := CountCalls(fn, "writeln"); got != 1 {
					return fmt.Errorf("expected 1 call to writeln, got %d", got)
				}
				return EveryBlockTerminated(fn)
			},
		},
		{
			Name: "09_break_and_exit",
			Check: func(m *ir.Module) error {
				fe, ok := FindFunction(m, "firstEven")
				if !ok {
					return fmt.Errorf("missing function %q", "firstEven")
				}
				if fe.ReturnType == nil {
					return fmt.Errorf("firstEven should have a non-nil return type")
				}
				if err := EveryBlockTerminated(fe); err != nil {
					return err
				}
				fn, ok := FindFunction(m, "main")
				if !ok {
					return fmt.Errorf("missing function %q", "main")
				}
				// the break'd while loop and the if around the break
				// each lower into their own blocks, beyond entry/exit.
				if len(fn.Blocks) < 5 {
					return fmt.Errorf("expected at least 5 blocks in main, got %d", len(fn.Blocks))
				}
				if got := CountCalls(fn, "firstEven"); got != 1 {
					return fmt.Errorf("expected 1 call to firstEven, got %d", got)
				}
				if got := CountCalls(fn, "writeln"); got != 2 {
					return fmt.Errorf("expected 2 calls to writeln, got %d", got)
				}
				return EveryBlockTerminated(fn)
			},
		},
		{
			Name: "10_readln_dec",
			Check: func(m *ir.Module) error {
				fn, ok := FindFunction(m, "main")
				if !ok {
					return fmt.Errorf("missing function %q", "main")
				}
				if got := CountCalls(fn, "readln"); got != 1 {
					return fmt.Errorf("expected 1 call to readln, got %d", got)
				}
				if got := CountCalls(fn, "dec"); got != 1 {
					return fmt.Errorf("expected 1 call to dec, got %d", got)
				}
				if got := CountCalls(fn, "writeln"); got != 1 {
					return fmt.Errorf("expected 1 call to writeln, got %d", got)
				}
				return EveryBlockTerminated(fn)
			},
		},
	}

	outcomes, err := Run("../../testdata/programs", cases)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, o := range Failures(outcomes) {
		t.Errorf("%s: %v", o.Case.Name, o.Err)
	}
}

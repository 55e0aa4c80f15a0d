// Package irgen lowers Mila's AST into the in-memory IR object model
// defined by internal/ir: constant folding, name resolution through
// internal/scope, for-to-while desugaring, array address arithmetic,
// and break/exit control transfer.
package irgen

import (
	"fmt"

	"github.com/rihafilip/mila/internal/ast"
	"github.com/rihafilip/mila/internal/diag"
	"github.com/rihafilip/mila/internal/ir"
	"github.com/rihafilip/mila/internal/scope"
	"github.com/rihafilip/mila/internal/variant"
)

// loopContext tracks the blocks a break statement inside the current
// loop should jump to.
type loopContext struct {
	header *ir.BasicBlock
	end    *ir.BasicBlock
}

// Generator carries all per-compilation lowering state, mirroring the
// teacher's Lowerer: a current function/block cursor, a loop-context
// stack for break, and a return-block handle for exit.
type Generator struct {
	filename string

	module *ir.Module

	globalScope *scope.Scope
	funcs       map[string]*ast.Subprogram
	consts      map[string]any

	currentFunc  *ir.Function
	currentBlock *ir.BasicBlock
	scopeStack   *scope.Scope

	loopStack []*loopContext

	// returnLocal/returnBlock implement "exit": a function-scoped
	// implicit result variable (for functions) and the single block
	// every return path -- explicit exit or falling off the end --
	// jumps to.
	returnLocal *ir.Local
	returnBlock *ir.BasicBlock
}

// New creates a lowering generator; filename is used only to tag
// diagnostics.
func New(filename string) *Generator {
	return &Generator{
		filename: filename,
		funcs:    make(map[string]*ast.Subprogram),
		consts:   make(map[string]any),
	}
}

// errorf builds a generic semantic diagnostic. Call sites that match one
// of the other named error categories (undeclared name, control-flow
// misuse, ...) should use the matching helper below instead so the
// diagnostic's Code reflects its taxonomy.
func (g *Generator) errorf(pos ast.Node, format string, args ...any) error {
	return g.diagf(diag.StageSemantic, diag.CodeSemanticNotLValue, pos, format, args...)
}

func (g *Generator) diagf(stage diag.Stage, code diag.Code, pos ast.Node, format string, args ...any) error {
	return diag.New(stage, code, fmt.Sprintf(format, args...), diag.Span{
		Filename: g.filename,
		Line:     pos.Pos().Line,
		Column:   pos.Pos().Column,
	})
}

// undeclaredf reports use of a name with no visible binding.
func (g *Generator) undeclaredf(pos ast.Node, name string) error {
	return g.diagf(diag.StageName, diag.CodeNameUndeclared, pos, "undeclared identifier %q", name)
}

// redeclaredf wraps a scope.Add collision with source position.
func (g *Generator) redeclaredf(pos ast.Node, name string) error {
	return g.diagf(diag.StageName, diag.CodeNameRedeclared, pos, "%q is already declared in this scope", name)
}

// Lower converts a full program into an ir.Module.
func (g *Generator) Lower(prog *ast.Program) (*ir.Module, error) {
	g.module = &ir.Module{Name: prog.Name}
	g.globalScope = scope.New(nil)
	g.scopeStack = g.globalScope

	// Pass 1: register every global (const, var, subprogram signature) so
	// mutually recursive and forward-referenced subprograms resolve.
	for _, global := range prog.Globals {
		if err := g.declareGlobal(global); err != nil {
			return nil, err
		}
	}

	// Pass 2: lower each subprogram body now that every name is visible.
	for _, global := range prog.Globals {
		sub, ok := variant.Get[*ast.Subprogram](global)
		if !ok || sub.Forward {
			continue
		}
		fn, err := g.lowerSubprogram(sub)
		if err != nil {
			return nil, err
		}
		g.module.Functions = append(g.module.Functions, fn)
	}

	// Pass 3: lower the top-level statement list into an implicit "main".
	main, err := g.lowerMain(prog.Body)
	if err != nil {
		return nil, err
	}
	g.module.Functions = append(g.module.Functions, main)

	return g.module, nil
}

func (g *Generator) lowerMain(body []ast.Statement) (*ir.Function, error) {
	retType := ir.IntType
	fn := ir.NewFunction("main", nil, &retType)
	g.currentFunc = fn
	g.scopeStack = scope.New(g.globalScope)
	g.loopStack = nil
	g.returnLocal = nil

	entry := fn.NewBlock("entry")
	g.currentBlock = entry
	g.returnBlock = fn.NewBlock("exit")

	if err := g.lowerStmtList(body); err != nil {
		return nil, err
	}
	if !g.currentBlock.Terminated() {
		g.currentBlock.SetTerminator(&ir.Br{Target: g.returnBlock})
	}
	g.returnBlock.SetTerminator(&ir.Ret{Value: ir.ConstInt{Value: 0}})

	return fn, nil
}

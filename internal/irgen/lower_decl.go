package irgen

import (
	"github.com/rihafilip/mila/internal/ast"
	"github.com/rihafilip/mila/internal/diag"
	"github.com/rihafilip/mila/internal/ir"
	"github.com/rihafilip/mila/internal/scope"
	"github.com/rihafilip/mila/internal/variant"
)

// binding is what a name resolves to during lowering: an addressable
// storage location plus its IR type. arrayLows only applies when typ is
// an array type; it holds the declared low bound of each dimension,
// outermost first, used to adjust index arithmetic so index 0 in the
// IR always means "element at that dimension's low bound" (spec.md's
// array address arithmetic, generalized to array-of-array nesting).
type binding struct {
	addr      ir.Operand
	typ       ir.Type
	arrayLows []int64
}

// resolveType lowers an AST type expression to an IR type, folding any
// array bounds as compile-time constants.
func (g *Generator) resolveType(t ast.Type) (ir.Type, error) {
	switch typ := t.(type) {
	case *ast.IntegerType:
		return ir.IntType, nil
	case *ast.BooleanType:
		return ir.BoolType, nil
	case *ast.ArrayType:
		low, err := g.evalConstInt(typ.Low)
		if err != nil {
			return ir.Type{}, err
		}
		high, err := g.evalConstInt(typ.High)
		if err != nil {
			return ir.Type{}, err
		}
		if low > high {
			return ir.Type{}, g.diagf(diag.StageSemantic, diag.CodeSemanticBadArrayBounds, typ, "array low bound %d exceeds high bound %d", low, high)
		}
		elem, err := g.resolveType(typ.Elem)
		if err != nil {
			return ir.Type{}, err
		}
		return ir.ArrayOf(elem, high-low+1), nil
	default:
		return ir.Type{}, g.errorf(t, "unsupported type expression")
	}
}

// arrayLowBounds returns a variable's declared low bound for each array
// dimension, outermost first, or nil for a non-array type.
func (g *Generator) arrayLowBounds(t ast.Type) ([]int64, error) {
	var lows []int64
	for {
		arr, ok := variant.Get[*ast.ArrayType](t)
		if !ok {
			return lows, nil
		}
		low, err := g.evalConstInt(arr.Low)
		if err != nil {
			return nil, err
		}
		lows = append(lows, low)
		t = arr.Elem
	}
}

// zeroValue returns the zero constant for an IR scalar type.
func zeroValue(t ir.Type) ir.Operand {
	if t.Kind == ir.I1 {
		return ir.ConstBool{Value: false}
	}
	return ir.ConstInt{Value: 0}
}

// declareGlobal registers one top-level declaration: a constant is
// folded immediately, a variable becomes an ir.Global, and a
// subprogram's signature is recorded so calls and mutual recursion
// resolve regardless of declaration order.
func (g *Generator) declareGlobal(global ast.Global) error {
	switch decl := global.(type) {
	case *ast.GlobalConst:
		v, err := g.evalConst(decl.Value)
		if err != nil {
			return err
		}
		g.consts[decl.Name] = v
		return nil

	case *ast.GlobalVar:
		irType, err := g.resolveType(decl.Type)
		if err != nil {
			return err
		}
		lows, err := g.arrayLowBounds(decl.Type)
		if err != nil {
			return err
		}
		g.module.Globals = append(g.module.Globals, &ir.Global{Name: decl.Name, Type: irType})
		if err := g.globalScope.Add(decl.Name, &binding{
			addr:      ir.GlobalAddr{Name: decl.Name, Typ: irType},
			typ:       irType,
			arrayLows: lows,
		}); err != nil {
			return g.redeclaredf(decl, decl.Name)
		}
		return nil

	case *ast.Subprogram:
		g.funcs[decl.Name] = decl
		return nil

	default:
		return g.errorf(global, "unsupported top-level declaration")
	}
}

// lowerSubprogram lowers one procedure or function body. A function's
// name acts, inside its own body, as an implicit local holding the
// eventual return value; every path through the body -- an explicit
// "exit" or falling off the end -- joins at a single return block that
// loads and returns it.
func (g *Generator) lowerSubprogram(sub *ast.Subprogram) (*ir.Function, error) {
	params := make([]ir.Param, len(sub.Params))
	for i, p := range sub.Params {
		irType, err := g.resolveType(p.Type)
		if err != nil {
			return nil, err
		}
		params[i] = ir.Param{Name: p.Name, Type: irType}
	}

	var retType *ir.Type
	if sub.IsFunction() {
		rt, err := g.resolveType(sub.ReturnType)
		if err != nil {
			return nil, err
		}
		retType = &rt
	}

	fn := ir.NewFunction(sub.Name, params, retType)
	g.currentFunc = fn
	g.scopeStack = scope.New(g.globalScope)
	g.loopStack = nil
	g.returnLocal = nil

	entry := fn.NewBlock("entry")
	g.currentBlock = entry
	g.returnBlock = fn.NewBlock("exit")

	for i, p := range sub.Params {
		// The incoming SSA parameter register is "%name"; its storage
		// slot is named "name.addr" so the two never collide in the
		// printed IR.
		local := fn.NewLocal(p.Name+".addr", params[i].Type)
		lows, err := g.arrayLowBounds(p.Type)
		if err != nil {
			return nil, err
		}
		addr := ir.Reg{Name: "%" + local.Name, Typ: local.Type}
		if err := g.scopeStack.Add(p.Name, &binding{addr: addr, typ: local.Type, arrayLows: lows}); err != nil {
			return nil, g.redeclaredf(sub, p.Name)
		}
		entry.Emit(&ir.Store{Addr: addr, Value: ir.Reg{Name: "%" + p.Name, Typ: local.Type}})
	}

	for _, v := range sub.Locals {
		irType, err := g.resolveType(v.Type)
		if err != nil {
			return nil, err
		}
		lows, err := g.arrayLowBounds(v.Type)
		if err != nil {
			return nil, err
		}
		local := fn.NewLocal(v.Name, irType)
		addr := ir.Reg{Name: "%" + local.Name, Typ: local.Type}
		if err := g.scopeStack.Add(v.Name, &binding{addr: addr, typ: local.Type, arrayLows: lows}); err != nil {
			return nil, g.redeclaredf(v, v.Name)
		}
	}

	if sub.IsFunction() {
		local := fn.NewLocal(sub.Name, *retType)
		addr := ir.Reg{Name: "%" + local.Name, Typ: local.Type}
		g.returnLocal = &local
		if err := g.scopeStack.Add(sub.Name, &binding{addr: addr, typ: local.Type}); err != nil {
			return nil, g.redeclaredf(sub, sub.Name)
		}
		// spec.md §8: the name-slot is initially zero, so a function that
		// only "exit"s without assigning it still returns a defined value.
		entry.Emit(&ir.Store{Addr: addr, Value: zeroValue(local.Type)})
	}

	if err := g.lowerStmtList(sub.Body); err != nil {
		return nil, err
	}
	if !g.currentBlock.Terminated() {
		g.currentBlock.SetTerminator(&ir.Br{Target: g.returnBlock})
	}

	if sub.IsFunction() {
		result := fn.NewReg()
		addr := ir.Reg{Name: "%" + sub.Name, Typ: *retType}
		g.returnBlock.Emit(&ir.Load{Result: result, Type: *retType, Addr: addr})
		g.returnBlock.SetTerminator(&ir.Ret{Value: ir.Reg{Name: result, Typ: *retType}})
	} else {
		g.returnBlock.SetTerminator(&ir.Ret{})
	}

	return fn, nil
}

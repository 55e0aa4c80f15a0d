package irgen

import (
	"github.com/rihafilip/mila/internal/ast"
	"github.com/rihafilip/mila/internal/diag"
	"github.com/rihafilip/mila/internal/ir"
	"github.com/rihafilip/mila/internal/token"
)

// isBuiltin names the runtime-library procedures the generator wires
// directly to the declarations in internal/ir's printer, without
// looking them up in g.funcs. ptrParams marks which of these take their
// argument by address rather than by value (spec.md §4.4 point 1).
var ptrParams = map[string]bool{
	"readln": true,
	"dec":    true,
}

func isBuiltin(name string) bool {
	switch name {
	case "write", "writeln", "readln", "dec":
		return true
	default:
		return false
	}
}

// lowerExpr lowers an expression to the IR operand holding its value,
// emitting whatever instructions are needed into the current block.
func (g *Generator) lowerExpr(expr ast.Expression) (ir.Operand, error) {
	switch e := expr.(type) {
	case *ast.Ident:
		return g.lowerVariableRead(e)
	case *ast.IntLit:
		return ir.ConstInt{Value: e.Value}, nil
	case *ast.BoolLit:
		return ir.ConstBool{Value: e.Value}, nil
	case *ast.UnaryExpr:
		return g.lowerUnaryExpr(e)
	case *ast.BinaryExpr:
		return g.lowerBinaryExpr(e)
	case *ast.CallExpr:
		return g.lowerCallExpr(e, true)
	case *ast.IndexExpr:
		addr, elemType, err := g.lowerArrayElementAddr(e)
		if err != nil {
			return nil, err
		}
		result := g.currentFunc.NewReg()
		g.currentBlock.Emit(&ir.Load{Result: result, Type: elemType, Addr: addr})
		return ir.Reg{Name: result, Typ: elemType}, nil
	default:
		return nil, g.errorf(expr, "unsupported expression")
	}
}

func (g *Generator) lowerVariableRead(id *ast.Ident) (ir.Operand, error) {
	b, ok := g.lookup(id.Name)
	if !ok {
		// A global constant has no storage slot; its folded value is used
		// directly.
		switch v := g.consts[id.Name].(type) {
		case int64:
			return ir.ConstInt{Value: v}, nil
		case bool:
			return ir.ConstBool{Value: v}, nil
		}
		return nil, g.undeclaredf(id, id.Name)
	}
	result := g.currentFunc.NewReg()
	g.currentBlock.Emit(&ir.Load{Result: result, Type: b.typ, Addr: b.addr})
	return ir.Reg{Name: result, Typ: b.typ}, nil
}

func (g *Generator) lowerUnaryExpr(e *ast.UnaryExpr) (ir.Operand, error) {
	operand, err := g.lowerExpr(e.Operand)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case token.PLUS:
		return operand, nil
	case token.MINUS:
		result := g.currentFunc.NewReg()
		g.currentBlock.Emit(&ir.BinOp{Result: result, Op: "sub", Type: ir.IntType, LHS: ir.ConstInt{Value: 0}, RHS: operand})
		return ir.Reg{Name: result, Typ: ir.IntType}, nil
	case token.NOT:
		result := g.currentFunc.NewReg()
		typ := operand.Type()
		allOnes := ir.Operand(ir.ConstBool{Value: true})
		if typ.Kind != ir.I1 {
			allOnes = ir.ConstInt{Value: -1}
		}
		g.currentBlock.Emit(&ir.BinOp{Result: result, Op: "xor", Type: typ, LHS: operand, RHS: allOnes})
		return ir.Reg{Name: result, Typ: typ}, nil
	default:
		return nil, g.errorf(e, "unsupported unary operator %s", e.Op)
	}
}

var icmpPreds = map[token.Type]string{
	token.EQ:  "eq",
	token.NEQ: "ne",
	token.LT:  "slt",
	token.LE:  "sle",
	token.GT:  "sgt",
	token.GE:  "sge",
}

var binOpcodes = map[token.Type]string{
	token.PLUS:  "add",
	token.MINUS: "sub",
	token.STAR:  "mul",
	token.SLASH: "sdiv",
	token.DIV:   "sdiv",
	token.MOD:   "srem",
	token.AND:   "and",
	token.OR:    "or",
	token.XOR:   "xor",
}

// lowerBinaryExpr maps a source operator directly to an IR opcode.
// Relational operators always compare as signed integers and always
// yield i1; "/" and "div" share sdiv (spec.md's tie-break); "and"/"or"/
// "xor" are plain bitwise ops that work identically whether their
// operands are i32 or i1.
func (g *Generator) lowerBinaryExpr(e *ast.BinaryExpr) (ir.Operand, error) {
	left, err := g.lowerExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := g.lowerExpr(e.Right)
	if err != nil {
		return nil, err
	}

	if pred, ok := icmpPreds[e.Op]; ok {
		result := g.currentFunc.NewReg()
		g.currentBlock.Emit(&ir.ICmp{Result: result, Pred: pred, LHS: left, RHS: right})
		return ir.Reg{Name: result, Typ: ir.BoolType}, nil
	}

	op, ok := binOpcodes[e.Op]
	if !ok {
		return nil, g.errorf(e, "unsupported binary operator %s", e.Op)
	}

	resultType := ir.IntType
	switch e.Op {
	case token.AND, token.OR, token.XOR:
		resultType = left.Type()
	}

	result := g.currentFunc.NewReg()
	g.currentBlock.Emit(&ir.BinOp{Result: result, Op: op, Type: resultType, LHS: left, RHS: right})
	return ir.Reg{Name: result, Typ: resultType}, nil
}

// lowerCallExpr lowers a procedure/function call, whether invoked as a
// statement (wantResult false, the returned operand is discarded by the
// caller) or as an expression (wantResult true).
func (g *Generator) lowerCallExpr(call *ast.CallExpr, wantResult bool) (ir.Operand, error) {
	name := call.Callee.Name
	if isBuiltin(name) {
		return g.lowerBuiltinCall(name, call)
	}

	sub, ok := g.funcs[name]
	if !ok {
		return nil, g.diagf(diag.StageName, diag.CodeNameUndeclared, call, "undeclared subprogram %q", name)
	}
	if len(call.Args) != len(sub.Params) {
		return nil, g.errorf(call, "%q expects %d argument(s), got %d", name, len(sub.Params), len(call.Args))
	}

	args := make([]ir.Operand, len(call.Args))
	argIsAddr := make([]bool, len(call.Args))
	for i, a := range call.Args {
		v, err := g.lowerExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	instr := &ir.Call{Callee: name, Args: args, ArgIsAddr: argIsAddr}
	if sub.IsFunction() {
		retType, err := g.resolveType(sub.ReturnType)
		if err != nil {
			return nil, err
		}
		instr.Result = g.currentFunc.NewReg()
		instr.Type = &retType
		g.currentBlock.Emit(instr)
		return ir.Reg{Name: instr.Result, Typ: retType}, nil
	}

	g.currentBlock.Emit(instr)
	return nil, nil
}

// lowerBuiltinCall lowers a call to one of the runtime-library
// procedures declared in internal/ir's printer. readln and dec receive
// the address of their argument, which must therefore be an l-value.
func (g *Generator) lowerBuiltinCall(name string, call *ast.CallExpr) (ir.Operand, error) {
	if len(call.Args) != 1 {
		return nil, g.errorf(call, "%q expects exactly one argument", name)
	}

	instr := &ir.Call{Callee: name}
	if ptrParams[name] {
		addr, elemType, err := g.lowerLValue(call.Args[0])
		if err != nil {
			return nil, err
		}
		instr.Args = []ir.Operand{addr}
		instr.ArgIsAddr = []bool{true}
		_ = elemType
	} else {
		v, err := g.lowerExpr(call.Args[0])
		if err != nil {
			return nil, err
		}
		instr.Args = []ir.Operand{v}
		instr.ArgIsAddr = []bool{false}
	}

	if name == "dec" {
		g.currentBlock.Emit(instr)
		return nil, nil
	}

	instr.Result = g.currentFunc.NewReg()
	retType := ir.IntType
	instr.Type = &retType
	g.currentBlock.Emit(instr)
	return ir.Reg{Name: instr.Result, Typ: retType}, nil
}

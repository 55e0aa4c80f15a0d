package irgen

import (
	"github.com/rihafilip/mila/internal/ast"
	"github.com/rihafilip/mila/internal/diag"
	"github.com/rihafilip/mila/internal/ir"
)

func (g *Generator) lowerStmtList(stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := g.lowerStmt(s); err != nil {
			return err
		}
		// A block whose terminator is already set (a break or an exit
		// fired mid-list) makes the remaining statements unreachable;
		// nothing after them can affect the emitted IR.
		if g.currentBlock.Terminated() {
			break
		}
	}
	return nil
}

func (g *Generator) lowerStmt(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		return g.lowerAssignStmt(s)
	case *ast.CallStmt:
		_, err := g.lowerCallExpr(s.Call, false)
		return err
	case *ast.CompoundStmt:
		return g.lowerStmtList(s.Stmts)
	case *ast.IfStmt:
		return g.lowerIfStmt(s)
	case *ast.WhileStmt:
		return g.lowerWhileStmt(s)
	case *ast.ForStmt:
		return g.lowerForStmt(s)
	case *ast.ExitStmt:
		g.currentBlock.SetTerminator(&ir.Br{Target: g.returnBlock})
		return nil
	case *ast.BreakStmt:
		return g.lowerBreakStmt(s)
	case *ast.EmptyStmt:
		return nil
	default:
		return g.errorf(stmt, "unsupported statement")
	}
}

// lowerAssignStmt lowers "target := value", where target is either a
// plain variable or an array element.
func (g *Generator) lowerAssignStmt(s *ast.AssignStmt) error {
	value, err := g.lowerExpr(s.Value)
	if err != nil {
		return err
	}
	addr, elemType, err := g.lowerLValue(s.Target)
	if err != nil {
		return err
	}
	value = g.coerce(value, elemType)
	g.currentBlock.Emit(&ir.Store{Addr: addr, Value: value})
	return nil
}

// lowerLValue resolves an assignable expression to the address to store
// into and the type stored there.
func (g *Generator) lowerLValue(target ast.Expression) (ir.Operand, ir.Type, error) {
	switch t := target.(type) {
	case *ast.Ident:
		b, ok := g.lookup(t.Name)
		if !ok {
			return nil, ir.Type{}, g.undeclaredf(t, t.Name)
		}
		return b.addr, b.typ, nil
	case *ast.IndexExpr:
		return g.lowerArrayElementAddr(t)
	default:
		return nil, ir.Type{}, g.errorf(target, "expression is not assignable")
	}
}

func (g *Generator) lookup(name string) (*binding, bool) {
	slot, ok := g.scopeStack.Lookup(name)
	if !ok {
		return nil, false
	}
	b, ok := slot.(*binding)
	return b, ok
}

// lowerArrayElementAddr computes the address of idx, applying the
// indexed dimension's declared low bound so the emitted GEP index is
// always zero-based regardless of the source-level bound.
func (g *Generator) lowerArrayElementAddr(idx *ast.IndexExpr) (ir.Operand, ir.Type, error) {
	addr, typ, _, _, err := g.lowerIndexExpr(idx)
	return addr, typ, err
}

// lowerIndexExpr is the recursive engine behind lowerArrayElementAddr.
// A multi-dimensional index "a[i, j]" is desugared by the parser into
// nested IndexExprs ("a[i][j]"); lows and depth thread the declaring
// variable's full per-dimension low-bound list and the current nesting
// depth through the recursion, so the inner index applies dimension
// 0's low bound and the outer index applies dimension 1's, and so on.
func (g *Generator) lowerIndexExpr(idx *ast.IndexExpr) (ir.Operand, ir.Type, []int64, int, error) {
	var arrAddr ir.Operand
	var arrType ir.Type
	var lows []int64
	var depth int

	switch base := idx.Array.(type) {
	case *ast.Ident:
		b, ok := g.lookup(base.Name)
		if !ok {
			return nil, ir.Type{}, nil, 0, g.undeclaredf(base, base.Name)
		}
		arrAddr, arrType, lows, depth = b.addr, b.typ, b.arrayLows, 0
	case *ast.IndexExpr:
		a, t, l, d, err := g.lowerIndexExpr(base)
		if err != nil {
			return nil, ir.Type{}, nil, 0, err
		}
		arrAddr, arrType, lows, depth = a, t, l, d+1
	default:
		return nil, ir.Type{}, nil, 0, g.errorf(idx, "only array variables can be indexed")
	}

	if arrType.Kind != ir.Array {
		return nil, ir.Type{}, nil, 0, g.diagf(diag.StageType, diag.CodeTypeNotArray, idx, "expression is not an array")
	}

	index, err := g.lowerExpr(idx.Index)
	if err != nil {
		return nil, ir.Type{}, nil, 0, err
	}

	low := int64(0)
	if depth < len(lows) {
		low = lows[depth]
	}

	adjusted := index
	if low != 0 {
		reg := g.currentFunc.NewReg()
		g.currentBlock.Emit(&ir.BinOp{
			Result: reg, Op: "sub", Type: ir.IntType,
			LHS: index, RHS: ir.ConstInt{Value: low},
		})
		adjusted = ir.Reg{Name: reg, Typ: ir.IntType}
	}

	result := g.currentFunc.NewReg()
	g.currentBlock.Emit(&ir.GEP{
		Result: result, ElemType: *arrType.Elem, Addr: arrAddr, Index: adjusted,
	})
	return ir.Reg{Name: result, Typ: *arrType.Elem}, *arrType.Elem, lows, depth, nil
}

func (g *Generator) lowerIfStmt(s *ast.IfStmt) error {
	cond, err := g.lowerExpr(s.Cond)
	if err != nil {
		return err
	}

	thenBlock := g.currentFunc.NewBlock("if.then")
	mergeBlock := g.currentFunc.NewBlock("if.end")

	var elseBlock *ir.BasicBlock
	if s.Else != nil {
		elseBlock = g.currentFunc.NewBlock("if.else")
	} else {
		elseBlock = mergeBlock
	}

	g.currentBlock.SetTerminator(&ir.CondBr{Cond: cond, True: thenBlock, False: elseBlock})

	g.currentBlock = thenBlock
	if err := g.lowerStmt(s.Then); err != nil {
		return err
	}
	if !g.currentBlock.Terminated() {
		g.currentBlock.SetTerminator(&ir.Br{Target: mergeBlock})
	}

	if s.Else != nil {
		g.currentBlock = elseBlock
		if err := g.lowerStmt(s.Else); err != nil {
			return err
		}
		if !g.currentBlock.Terminated() {
			g.currentBlock.SetTerminator(&ir.Br{Target: mergeBlock})
		}
	}

	g.currentBlock = mergeBlock
	return nil
}

func (g *Generator) lowerWhileStmt(s *ast.WhileStmt) error {
	header := g.currentFunc.NewBlock("while.header")
	body := g.currentFunc.NewBlock("while.body")
	end := g.currentFunc.NewBlock("while.end")

	g.currentBlock.SetTerminator(&ir.Br{Target: header})

	g.currentBlock = header
	cond, err := g.lowerExpr(s.Cond)
	if err != nil {
		return err
	}
	header.SetTerminator(&ir.CondBr{Cond: cond, True: body, False: end})

	g.loopStack = append(g.loopStack, &loopContext{header: header, end: end})
	defer func() { g.loopStack = g.loopStack[:len(g.loopStack)-1] }()

	g.currentBlock = body
	if err := g.lowerStmt(s.Body); err != nil {
		return err
	}
	if !g.currentBlock.Terminated() {
		g.currentBlock.SetTerminator(&ir.Br{Target: header})
	}

	g.currentBlock = end
	return nil
}

// lowerForStmt desugars "for v := from to/downto to do body" into a
// while loop over an explicit loop-variable local, matching spec.md's
// for-to-while desugaring.
func (g *Generator) lowerForStmt(s *ast.ForStmt) error {
	b, ok := g.lookup(s.Var.Name)
	if !ok {
		return g.undeclaredf(s.Var, s.Var.Name)
	}

	from, err := g.lowerExpr(s.From)
	if err != nil {
		return err
	}
	g.currentBlock.Emit(&ir.Store{Addr: b.addr, Value: from})

	limitLocal := g.currentFunc.NewLocal(s.Var.Name+".limit", ir.IntType)
	limitAddr := ir.Reg{Name: "%" + limitLocal.Name, Typ: ir.IntType}
	to, err := g.lowerExpr(s.To)
	if err != nil {
		return err
	}
	g.currentBlock.Emit(&ir.Store{Addr: limitAddr, Value: to})

	header := g.currentFunc.NewBlock("for.header")
	body := g.currentFunc.NewBlock("for.body")
	end := g.currentFunc.NewBlock("for.end")

	g.currentBlock.SetTerminator(&ir.Br{Target: header})
	g.currentBlock = header

	curReg := g.currentFunc.NewReg()
	header.Emit(&ir.Load{Result: curReg, Type: ir.IntType, Addr: b.addr})
	limitReg := g.currentFunc.NewReg()
	header.Emit(&ir.Load{Result: limitReg, Type: ir.IntType, Addr: limitAddr})

	pred := "sle"
	if s.Downto {
		pred = "sge"
	}
	condReg := g.currentFunc.NewReg()
	header.Emit(&ir.ICmp{Result: condReg, Pred: pred, LHS: ir.Reg{Name: curReg, Typ: ir.IntType}, RHS: ir.Reg{Name: limitReg, Typ: ir.IntType}})
	header.SetTerminator(&ir.CondBr{Cond: ir.Reg{Name: condReg, Typ: ir.BoolType}, True: body, False: end})

	g.loopStack = append(g.loopStack, &loopContext{header: header, end: end})
	defer func() { g.loopStack = g.loopStack[:len(g.loopStack)-1] }()

	g.currentBlock = body
	if err := g.lowerStmt(s.Body); err != nil {
		return err
	}
	if !g.currentBlock.Terminated() {
		stepReg := g.currentFunc.NewReg()
		loadReg := g.currentFunc.NewReg()
		g.currentBlock.Emit(&ir.Load{Result: loadReg, Type: ir.IntType, Addr: b.addr})
		op := "add"
		if s.Downto {
			op = "sub"
		}
		g.currentBlock.Emit(&ir.BinOp{Result: stepReg, Op: op, Type: ir.IntType, LHS: ir.Reg{Name: loadReg, Typ: ir.IntType}, RHS: ir.ConstInt{Value: 1}})
		g.currentBlock.Emit(&ir.Store{Addr: b.addr, Value: ir.Reg{Name: stepReg, Typ: ir.IntType}})
		g.currentBlock.SetTerminator(&ir.Br{Target: header})
	}

	g.currentBlock = end
	return nil
}

func (g *Generator) lowerBreakStmt(s *ast.BreakStmt) error {
	if len(g.loopStack) == 0 {
		return g.diagf(diag.StageControlFlow, diag.CodeControlFlowBreakOutsideLoop, s, "'break' outside of a loop")
	}
	loop := g.loopStack[len(g.loopStack)-1]
	g.currentBlock.SetTerminator(&ir.Br{Target: loop.end})
	return nil
}

// coerce is the single seam for implicit conversions on assignment.
// Mila has none today, but every assignment routes through it so one
// gets added in one place if that changes.
func (g *Generator) coerce(v ir.Operand, want ir.Type) ir.Operand {
	return v
}

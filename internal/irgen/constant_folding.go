package irgen

import (
	"fmt"

	"github.com/rihafilip/mila/internal/ast"
	"github.com/rihafilip/mila/internal/diag"
	"github.com/rihafilip/mila/internal/token"
)

// evalConst evaluates a compile-time constant expression to an int64 or
// a bool. It is used for const declarations and array bounds, both of
// which spec requires to be constant expressions rather than arbitrary
// runtime computation.
func (g *Generator) evalConst(expr ast.Expression) (any, error) {
	switch e := expr.(type) {
	case *ast.IntLit:
		return e.Value, nil
	case *ast.BoolLit:
		return e.Value, nil
	case *ast.Ident:
		v, ok := g.consts[e.Name]
		if !ok {
			return nil, g.diagf(diag.StageName, diag.CodeNameNotConstant, e, "%q is not a constant", e.Name)
		}
		return v, nil
	case *ast.UnaryExpr:
		return g.evalConstUnary(e)
	case *ast.BinaryExpr:
		return g.evalConstBinary(e)
	default:
		return nil, g.diagf(diag.StageType, diag.CodeTypeNotConstant, expr, "expression is not a compile-time constant")
	}
}

func (g *Generator) evalConstInt(expr ast.Expression) (int64, error) {
	v, err := g.evalConst(expr)
	if err != nil {
		return 0, err
	}
	i, ok := v.(int64)
	if !ok {
		return 0, g.errorf(expr, "expected a constant integer expression")
	}
	return i, nil
}

func (g *Generator) evalConstUnary(e *ast.UnaryExpr) (any, error) {
	v, err := g.evalConst(e.Operand)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case token.MINUS:
		i, ok := v.(int64)
		if !ok {
			return nil, g.errorf(e, "'-' requires an integer operand")
		}
		return -i, nil
	case token.NOT:
		b, ok := v.(bool)
		if !ok {
			return nil, g.errorf(e, "'not' requires a boolean operand")
		}
		return !b, nil
	default:
		return nil, g.errorf(e, "unsupported constant unary operator %s", e.Op)
	}
}

func (g *Generator) evalConstBinary(e *ast.BinaryExpr) (any, error) {
	left, err := g.evalConst(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := g.evalConst(e.Right)
	if err != nil {
		return nil, err
	}

	if lb, ok := left.(bool); ok {
		rb, ok := right.(bool)
		if !ok {
			return nil, g.errorf(e, "mismatched operand types for %s", e.Op)
		}
		return evalConstBoolOp(e.Op, lb, rb)
	}

	li, ok := left.(int64)
	if !ok {
		return nil, g.errorf(e, "mismatched operand types for %s", e.Op)
	}
	ri, ok := right.(int64)
	if !ok {
		return nil, g.errorf(e, "mismatched operand types for %s", e.Op)
	}
	return g.evalConstIntOp(e, li, ri)
}

func evalConstBoolOp(op token.Type, l, r bool) (any, error) {
	switch op {
	case token.AND:
		return l && r, nil
	case token.OR:
		return l || r, nil
	case token.XOR:
		return l != r, nil
	case token.EQ:
		return l == r, nil
	case token.NEQ:
		return l != r, nil
	default:
		return nil, fmt.Errorf("operator %s is not defined for boolean constants", op)
	}
}

func (g *Generator) evalConstIntOp(e *ast.BinaryExpr, l, r int64) (any, error) {
	switch e.Op {
	case token.PLUS:
		return l + r, nil
	case token.MINUS:
		return l - r, nil
	case token.STAR:
		return l * r, nil
	case token.SLASH, token.DIV:
		if r == 0 {
			return nil, g.errorf(e, "division by zero in constant expression")
		}
		return l / r, nil
	case token.MOD:
		if r == 0 {
			return nil, g.errorf(e, "division by zero in constant expression")
		}
		return l % r, nil
	case token.EQ:
		return l == r, nil
	case token.NEQ:
		return l != r, nil
	case token.LT:
		return l < r, nil
	case token.LE:
		return l <= r, nil
	case token.GT:
		return l > r, nil
	case token.GE:
		return l >= r, nil
	default:
		return nil, g.errorf(e, "operator %s is not defined for integer constants", e.Op)
	}
}

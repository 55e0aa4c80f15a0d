package ast

import (
	"fmt"
	"strings"

	"github.com/rihafilip/mila/internal/variant"
)

// PrettyPrint returns a human-readable, indentation-based rendering of
// the program, used by the CLI's "-p" mode.
func (p *Program) PrettyPrint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "program %s\n", p.Name)
	for _, g := range p.Globals {
		writeGlobal(&b, g, 1)
	}
	b.WriteString("begin\n")
	for _, s := range p.Body {
		writeStmt(&b, s, 1)
	}
	b.WriteString("end\n")
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
}

func writeGlobal(b *strings.Builder, g Global, depth int) {
	indent(b, depth)
	switch decl := g.(type) {
	case *GlobalConst:
		fmt.Fprintf(b, "const %s = %s\n", decl.Name, exprString(decl.Value))
	case *GlobalVar:
		fmt.Fprintf(b, "var %s: %s\n", decl.Name, typeString(decl.Type))
	case *Subprogram:
		kind := "procedure"
		if decl.IsFunction() {
			kind = "function"
		}
		params := make([]string, len(decl.Params))
		for i, p := range decl.Params {
			params[i] = fmt.Sprintf("%s: %s", p.Name, typeString(p.Type))
		}
		sig := fmt.Sprintf("%s %s(%s)", kind, decl.Name, strings.Join(params, ", "))
		if decl.IsFunction() {
			sig += ": " + typeString(decl.ReturnType)
		}
		if decl.Forward {
			fmt.Fprintf(b, "%s forward\n", sig)
			return
		}
		fmt.Fprintf(b, "%s\n", sig)
		for _, v := range decl.Locals {
			indent(b, depth+1)
			fmt.Fprintf(b, "var %s: %s\n", v.Name, typeString(v.Type))
		}
		indent(b, depth)
		b.WriteString("begin\n")
		for _, s := range decl.Body {
			writeStmt(b, s, depth+1)
		}
		indent(b, depth)
		b.WriteString("end\n")
	default:
		indent(b, depth)
		b.WriteString("<unknown global>\n")
	}
}

func typeString(t Type) string {
	s, ok := variant.Visit(t,
		variant.Case(func(*IntegerType) string { return "integer" }),
		variant.Case(func(*BooleanType) string { return "boolean" }),
		variant.Case(func(typ *ArrayType) string {
			return fmt.Sprintf("array[%s..%s] of %s", exprString(typ.Low), exprString(typ.High), typeString(typ.Elem))
		}),
	)
	if !ok {
		return "?"
	}
	return s
}

func exprString(e Expression) string {
	s, ok := variant.Visit(e,
		variant.Case(func(expr *Ident) string { return expr.Name }),
		variant.Case(func(expr *IntLit) string { return fmt.Sprintf("%d", expr.Value) }),
		variant.Case(func(expr *BoolLit) string {
			if expr.Value {
				return "true"
			}
			return "false"
		}),
		variant.Case(func(expr *UnaryExpr) string {
			return fmt.Sprintf("(%s %s)", expr.Op, exprString(expr.Operand))
		}),
		variant.Case(func(expr *BinaryExpr) string {
			return fmt.Sprintf("(%s %s %s)", exprString(expr.Left), expr.Op, exprString(expr.Right))
		}),
		variant.Case(func(expr *CallExpr) string {
			args := make([]string, len(expr.Args))
			for i, a := range expr.Args {
				args[i] = exprString(a)
			}
			return fmt.Sprintf("%s(%s)", expr.Callee.Name, strings.Join(args, ", "))
		}),
		variant.Case(func(expr *IndexExpr) string {
			return fmt.Sprintf("%s[%s]", exprString(expr.Array), exprString(expr.Index))
		}),
	)
	if !ok {
		return "?"
	}
	return s
}

func writeStmt(b *strings.Builder, s Statement, depth int) {
	indent(b, depth)
	switch stmt := s.(type) {
	case *AssignStmt:
		fmt.Fprintf(b, "%s := %s\n", exprString(stmt.Target), exprString(stmt.Value))
	case *CallStmt:
		fmt.Fprintf(b, "%s\n", exprString(stmt.Call))
	case *CompoundStmt:
		b.WriteString("begin\n")
		for _, inner := range stmt.Stmts {
			writeStmt(b, inner, depth+1)
		}
		indent(b, depth)
		b.WriteString("end\n")
	case *IfStmt:
		fmt.Fprintf(b, "if %s then\n", exprString(stmt.Cond))
		writeStmt(b, stmt.Then, depth+1)
		if stmt.Else != nil {
			indent(b, depth)
			b.WriteString("else\n")
			writeStmt(b, stmt.Else, depth+1)
		}
	case *WhileStmt:
		fmt.Fprintf(b, "while %s do\n", exprString(stmt.Cond))
		writeStmt(b, stmt.Body, depth+1)
	case *ForStmt:
		dir := "to"
		if stmt.Downto {
			dir = "downto"
		}
		fmt.Fprintf(b, "for %s := %s %s %s do\n", stmt.Var.Name, exprString(stmt.From), dir, exprString(stmt.To))
		writeStmt(b, stmt.Body, depth+1)
	case *ExitStmt:
		b.WriteString("exit\n")
	case *BreakStmt:
		b.WriteString("break\n")
	case *EmptyStmt:
		b.WriteString("<empty>\n")
	default:
		b.WriteString("<unknown statement>\n")
	}
}

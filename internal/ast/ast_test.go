package ast

import (
	"testing"

	"github.com/rihafilip/mila/internal/token"
)

func TestSubprogramIsFunction(t *testing.T) {
	proc := NewSubprogram("Swap", nil, nil, nil, nil, false, token.Position{})
	if proc.IsFunction() {
		t.Fatal("procedure with nil ReturnType reported as function")
	}

	fn := NewSubprogram("Square", nil, NewIntegerType(token.Position{}), nil, nil, false, token.Position{})
	if !fn.IsFunction() {
		t.Fatal("function with non-nil ReturnType reported as procedure")
	}
}

func TestForStmtCarriesDirection(t *testing.T) {
	v := NewIdent("i", token.Position{})
	f := NewForStmt(v, NewIntLit(1, token.Position{}), NewIntLit(10, token.Position{}), true, nil, token.Position{})
	if !f.Downto {
		t.Fatal("expected Downto to be true")
	}
}

func TestArrayTypePos(t *testing.T) {
	pos := token.Position{Line: 4, Column: 2}
	arr := NewArrayType(NewIntLit(0, pos), NewIntLit(9, pos), NewIntegerType(pos), pos)
	if arr.Pos() != pos {
		t.Fatalf("Pos() = %v, want %v", arr.Pos(), pos)
	}
}

package compiler

import (
	"strings"
	"testing"
)

func TestCompile_Scenario1(t *testing.T) {
	src := "program p; begin writeln(1+2*3) end."
	result, err := Compile(src, "scenario1.mila")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	out := result.Module.Print()
	if !strings.Contains(out, "call i32 @writeln") {
		t.Errorf("expected a call to writeln, got:\n%s", out)
	}
	if !strings.Contains(out, "define i32 @main()") {
		t.Errorf("expected an i32-returning main function, got:\n%s", out)
	}
}

func TestCompile_UndeclaredIdentifierIsSemanticError(t *testing.T) {
	src := "program p; begin writeln(x) end."
	if _, err := Compile(src, "bad.mila"); err == nil {
		t.Fatalf("expected an error for undeclared identifier, got none")
	}
}

func TestCompile_TrailingInputAfterFinalDotIsParseError(t *testing.T) {
	src := "program p; begin writeln(1) end. garbage"
	if _, err := Compile(src, "trailing.mila"); err == nil {
		t.Fatalf("expected a parse error for trailing input, got none")
	}
}

func TestCompile_LexErrorIsReported(t *testing.T) {
	src := "program p; begin writeln(&) end."
	if _, err := Compile(src, "badnum.mila"); err == nil {
		t.Fatalf("expected a lex error for an empty octal literal, got none")
	}
}

func TestParse_SucceedsDespiteSemanticError(t *testing.T) {
	src := "program p; begin writeln(x) end."
	prog, err := Parse(src, "unresolved.mila")
	if err != nil {
		t.Fatalf("Parse should not fail on a semantic-only error: %v", err)
	}
	if prog.Name != "p" {
		t.Errorf("expected program name %q, got %q", "p", prog.Name)
	}
}

func TestTokenize(t *testing.T) {
	toks, err := Tokenize("program p;", "t.mila")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(toks))
	}
}

package lexer

import (
	"testing"

	"github.com/rihafilip/mila/internal/token"
)

func collectTokens(t *testing.T, input string) []token.Token {
	t.Helper()
	l := New(input)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("unexpected lexer error: %v", err)
		}
		if tok == nil {
			return toks
		}
		toks = append(toks, *tok)
	}
}

func TestLexKeywordsAndIdents(t *testing.T) {
	toks := collectTokens(t, "program Foo; var x : integer;")
	want := []token.Type{
		token.PROGRAM, token.IDENT, token.SEMICOLON,
		token.VAR, token.IDENT, token.COLON, token.INTEGER, token.SEMICOLON,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, tt)
		}
	}
}

func TestLexKeywordLookupIsCaseSensitive(t *testing.T) {
	toks := collectTokens(t, "Program")
	if len(toks) != 1 || toks[0].Type != token.IDENT {
		t.Fatalf("expected 'Program' (capitalized) to lex as IDENT, got %v", toks)
	}
}

func TestLexDecimalInteger(t *testing.T) {
	toks := collectTokens(t, "12345")
	if len(toks) != 1 || toks[0].Type != token.INT || toks[0].Literal != "12345" {
		t.Fatalf("got %v", toks)
	}
}

func TestLexOctalInteger(t *testing.T) {
	toks := collectTokens(t, "&17")
	if len(toks) != 1 || toks[0].Type != token.INT || toks[0].Literal != "15" {
		t.Fatalf("got %v, want INT(15)", toks)
	}
}

func TestLexHexInteger(t *testing.T) {
	toks := collectTokens(t, "$1F")
	if len(toks) != 1 || toks[0].Type != token.INT || toks[0].Literal != "31" {
		t.Fatalf("got %v, want INT(31)", toks)
	}
}

func TestLexUnterminatedOctalIsError(t *testing.T) {
	l := New("&")
	if _, err := l.Next(); err == nil {
		t.Fatal("expected an error for '&' with no octal digits")
	}
}

func TestLexUnterminatedHexIsError(t *testing.T) {
	l := New("$")
	if _, err := l.Next(); err == nil {
		t.Fatal("expected an error for '$' with no hex digits")
	}
}

func TestLexTwoCharOperators(t *testing.T) {
	toks := collectTokens(t, "<= <> >= := .. < > : .")
	want := []token.Type{
		token.LE, token.NEQ, token.GE, token.ASSIGN, token.DOTDOT,
		token.LT, token.GT, token.COLON, token.DOT,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, tt)
		}
	}
}

func TestLexBooleanLiterals(t *testing.T) {
	toks := collectTokens(t, "true false")
	if len(toks) != 2 || toks[0].Type != token.BOOL || toks[1].Type != token.BOOL {
		t.Fatalf("got %v", toks)
	}
}

func TestLexIllegalCharacter(t *testing.T) {
	l := New("@")
	if _, err := l.Next(); err == nil {
		t.Fatal("expected an error for illegal character '@'")
	}
}

func TestLexPositionsAcrossLines(t *testing.T) {
	l := New("x\ny")
	first, err := l.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Pos.Line != 1 || first.Pos.Column != 0 {
		t.Fatalf("first token pos = %v, want 1:0", first.Pos)
	}
	second, err := l.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Pos.Line != 2 || second.Pos.Column != 0 {
		t.Fatalf("second token pos = %v, want 2:0", second.Pos)
	}
}

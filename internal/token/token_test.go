package token

import "testing"

// TestKeywordRoundTrip exercises spec.md §8's round-trip property: every
// keyword's type resolves back to the exact word that produced it.
func TestKeywordRoundTrip(t *testing.T) {
	words := []string{
		"program", "forward", "function", "procedure", "const", "var",
		"begin", "end", "while", "do", "for", "to", "downto", "if", "then",
		"else", "array", "of", "integer", "boolean", "exit", "break",
		"div", "mod", "not", "and", "or", "xor",
	}
	for _, w := range words {
		tt := LookupIdent(w)
		if tt == IDENT {
			t.Fatalf("LookupIdent(%q) = IDENT, want a keyword type", w)
		}
		if got := Text(tt); got != w {
			t.Errorf("Text(LookupIdent(%q)) = %q, want %q", w, got, w)
		}
	}
}

// TestBoolWordsShareOneType documents that "true" and "false" both lex
// to BOOL, so BOOL's canonical text falls back to its own string form
// rather than a reverse keyword lookup.
func TestBoolWordsShareOneType(t *testing.T) {
	if LookupIdent("true") != BOOL || LookupIdent("false") != BOOL {
		t.Fatalf("expected both boolean literals to lex as BOOL")
	}
	if !IsKeyword("true") || !IsKeyword("false") {
		t.Fatalf("expected boolean literals to be reserved words")
	}
	if got := Text(BOOL); got != string(BOOL) {
		t.Fatalf("Text(BOOL) = %q, want %q", got, string(BOOL))
	}
}

func TestOperatorTextIsItsOwnType(t *testing.T) {
	for _, tt := range []Type{PLUS, MINUS, ASSIGN, NEQ, LBRACKET, SEMICOLON} {
		if got := Text(tt); got != string(tt) {
			t.Errorf("Text(%s) = %q, want %q", tt, got, string(tt))
		}
	}
}

func TestIsKeywordRejectsPlainIdent(t *testing.T) {
	if IsKeyword("counter") {
		t.Fatalf("expected 'counter' not to be a keyword")
	}
	if LookupIdent("counter") != IDENT {
		t.Fatalf("expected 'counter' to lex as IDENT")
	}
}

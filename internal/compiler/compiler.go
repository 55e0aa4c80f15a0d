// Package compiler is the single synchronous entry point that drives
// the whole pipeline -- lex, parse, lower -- and is the one library
// surface both cmd/mila and internal/testrunner call into.
package compiler

import (
	"github.com/pkg/errors"

	"github.com/rihafilip/mila/internal/ast"
	"github.com/rihafilip/mila/internal/ir"
	"github.com/rihafilip/mila/internal/irgen"
	"github.com/rihafilip/mila/internal/lexer"
	"github.com/rihafilip/mila/internal/parser"
	"github.com/rihafilip/mila/internal/token"
)

// Result carries the AST and the IR module of a full compile. It holds
// no token list; "-l" and "-p" are served by Tokenize and Parse.
type Result struct {
	Program *ast.Program
	Module  *ir.Module
}

// Compile runs the full pipeline over source, tagging any diagnostic
// with filename. It is the only place the three stages are wired
// together; both the CLI and the golden-file test harness call it
// rather than driving lexer/parser/irgen themselves.
func Compile(source, filename string) (*Result, error) {
	prog, err := Parse(source, filename)
	if err != nil {
		return nil, err
	}

	gen := irgen.New(filename)
	module, err := gen.Lower(prog)
	if err != nil {
		return nil, errors.Wrap(err, "irgen")
	}

	return &Result{Program: prog, Module: module}, nil
}

// Parse runs only lexing and parsing, for the CLI's "-p" mode: a
// program with a semantic error (undeclared name, bad array bounds)
// still has a printable AST.
func Parse(source, filename string) (*ast.Program, error) {
	p, err := parser.New(source, filename)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	prog, err := p.ParseProgram()
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	return prog, nil
}

// Tokenize runs only the lexing stage, for the CLI's "-l" mode. It
// re-lexes independently of Compile's parser-driven pass since token
// dumping should not silently swallow a later parse error.
func Tokenize(source, filename string) ([]token.Token, error) {
	lx := lexer.New(source)
	lx.SetFilename(filename)

	var toks []token.Token
	for {
		tok, err := lx.Next()
		if err != nil {
			if lexErr, ok := err.(*lexer.Error); ok {
				return nil, lexErr.ToDiagnostic(filename)
			}
			return nil, err
		}
		if tok == nil {
			break
		}
		toks = append(toks, *tok)
	}
	return toks, nil
}

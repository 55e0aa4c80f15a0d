// Command mila is the compiler's CLI entry point: argument parsing and
// mode selection over the internal/compiler library (spec.md §6 scopes
// this command itself out of the core, but it still needs a real
// front door to drive the pipeline from a shell).
package main

import (
	"flag"
	"fmt"
	"os"

	semver "github.com/Masterminds/semver/v3"

	"github.com/rihafilip/mila/internal/compiler"
)

// version is the compiler's own release version, surfaced by --version.
const version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: mila <IN_FILE> [-l | -p | -o <OUT> | -h]\n")
	fmt.Fprintf(os.Stderr, "\nModes:\n")
	fmt.Fprintf(os.Stderr, "  -l          print tokens, one per line\n")
	fmt.Fprintf(os.Stderr, "  -p          print the parsed AST\n")
	fmt.Fprintf(os.Stderr, "  -o <OUT>    compile; emit IR to OUT\n")
	fmt.Fprintf(os.Stderr, "  -h          print this message\n")
	fmt.Fprintf(os.Stderr, "  --version   print the compiler version\n")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("mila", flag.ContinueOnError)
	fs.Usage = usage

	lex := fs.Bool("l", false, "print tokens, one per line")
	parseOnly := fs.Bool("p", false, "print the AST")
	out := fs.String("o", "", "compile; emit IR to the given file")
	help := fs.Bool("h", false, "print usage")
	showVersion := fs.Bool("version", false, "print the compiler version")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	// Flag parsing stops at the input file; the mode flags that follow it
	// are parsed in a second pass.
	inFile := ""
	if fs.NArg() >= 1 {
		inFile = fs.Arg(0)
		if err := fs.Parse(fs.Args()[1:]); err != nil {
			return 2
		}
	}

	if *showVersion {
		v, err := semver.NewVersion(version)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		fmt.Println(v.String())
		return 0
	}

	if *help {
		usage()
		return 0
	}

	if inFile == "" {
		fmt.Fprintln(os.Stderr, "mila: must pass a mode")
		usage()
		return 2
	}

	modesSelected := 0
	for _, selected := range []bool{*lex, *parseOnly, *out != ""} {
		if selected {
			modesSelected++
		}
	}
	if modesSelected != 1 {
		fmt.Fprintln(os.Stderr, "mila: pass exactly one of -l, -p, -o")
		usage()
		return 2
	}

	source, err := os.ReadFile(inFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	switch {
	case *lex:
		return runTokens(string(source), inFile)
	case *parseOnly:
		return runParse(string(source), inFile)
	default:
		return runCompile(string(source), inFile, *out)
	}
}

func runTokens(source, filename string) int {
	toks, err := compiler.Tokenize(source, filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	for _, t := range toks {
		fmt.Println(t.String())
	}
	return 0
}

func runParse(source, filename string) int {
	prog, err := compiler.Parse(source, filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	fmt.Print(prog.PrettyPrint())
	return 0
}

func runCompile(source, filename, out string) int {
	result, err := compiler.Compile(source, filename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := os.WriteFile(out, []byte(result.Module.Print()), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return 0
}

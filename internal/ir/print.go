package ir

import (
	"fmt"
	"strings"
)

// runtimeDecls lists the runtime-library procedures every Mila program
// may call; the printer always declares them, whether or not the
// program actually uses one, matching the teacher's
// emitRuntimeDeclarations convention of declaring the whole runtime
// surface up front. readln and dec take a pointer argument; the two
// value-taking siblings write and writeln round-trip their argument as
// the return value, mirroring the source runtime's signatures.
var runtimeDecls = []string{
	"declare i32 @write(i32)",
	"declare i32 @writeln(i32)",
	"declare i32 @readln(i32*)",
	"declare void @dec(i32*)",
}

// Print renders the module as LLVM IR textual syntax.
func (m *Module) Print() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("; ModuleID = '%s'\n\n", m.Name))

	for _, decl := range runtimeDecls {
		b.WriteString(decl)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, g := range m.Globals {
		b.WriteString(fmt.Sprintf("@%s = global %s %s\n", g.Name, g.Type, zeroValue(g.Type)))
	}
	if len(m.Globals) > 0 {
		b.WriteString("\n")
	}

	for i, fn := range m.Functions {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fn.print())
	}

	return b.String()
}

func zeroValue(t Type) string {
	switch t.Kind {
	case I1:
		return "false"
	case Array:
		return "zeroinitializer"
	default:
		return "0"
	}
}

func (f *Function) print() string {
	var b strings.Builder

	retType := "void"
	if f.ReturnType != nil {
		retType = f.ReturnType.String()
	}

	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s %%%s", p.Type, p.Name)
	}

	b.WriteString(fmt.Sprintf("define %s @%s(%s) {\n", retType, f.Name, strings.Join(params, ", ")))

	for i, bb := range f.Blocks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(bb.print(f, i == 0))
	}

	b.WriteString("}\n")
	return b.String()
}

// print renders a basic block. On the entry block, the function's
// allocas are emitted first, ahead of its own instructions, matching
// how a non-optimizing LLVM front end hoists every alloca to function
// entry regardless of where the corresponding source declaration lives.
func (bb *BasicBlock) print(f *Function, isEntry bool) string {
	var b strings.Builder
	b.WriteString(bb.Label)
	b.WriteString(":\n")

	if isEntry {
		for _, local := range f.Locals {
			b.WriteString(fmt.Sprintf("  %%%s = alloca %s\n", local.Name, local.Type))
		}
	}

	for _, instr := range bb.Instrs {
		b.WriteString("  ")
		b.WriteString(printInstr(instr))
		b.WriteString("\n")
	}

	if bb.Terminator != nil {
		b.WriteString("  ")
		b.WriteString(printTerminator(bb.Terminator))
		b.WriteString("\n")
	}

	return b.String()
}

func printOperand(op Operand) string {
	switch o := op.(type) {
	case ConstInt:
		return fmt.Sprintf("%d", o.Value)
	case ConstBool:
		if o.Value {
			return "true"
		}
		return "false"
	case GlobalAddr:
		return "@" + o.Name
	case Reg:
		return o.Name
	default:
		return "<?>"
	}
}

func printInstr(instr Instruction) string {
	switch ins := instr.(type) {
	case *Alloca:
		return fmt.Sprintf("%s = alloca %s", ins.Result, ins.Type)
	case *Load:
		return fmt.Sprintf("%s = load %s, %s* %s", ins.Result, ins.Type, ins.Type, printOperand(ins.Addr))
	case *Store:
		return fmt.Sprintf("store %s %s, %s* %s", ins.Value.Type(), printOperand(ins.Value), ins.Value.Type(), printOperand(ins.Addr))
	case *BinOp:
		return fmt.Sprintf("%s = %s %s %s, %s", ins.Result, ins.Op, ins.Type, printOperand(ins.LHS), printOperand(ins.RHS))
	case *ICmp:
		return fmt.Sprintf("%s = icmp %s i32 %s, %s", ins.Result, ins.Pred, printOperand(ins.LHS), printOperand(ins.RHS))
	case *GEP:
		return fmt.Sprintf("%s = getelementptr %s, %s* %s, i32 %s", ins.Result, ins.ElemType, ins.ElemType, printOperand(ins.Addr), printOperand(ins.Index))
	case *Call:
		args := make([]string, len(ins.Args))
		for i, a := range ins.Args {
			typ := a.Type().String()
			if i < len(ins.ArgIsAddr) && ins.ArgIsAddr[i] {
				typ += "*"
			}
			args[i] = fmt.Sprintf("%s %s", typ, printOperand(a))
		}
		if ins.Result == "" {
			return fmt.Sprintf("call void @%s(%s)", ins.Callee, strings.Join(args, ", "))
		}
		retType := "i32"
		if ins.Type != nil {
			retType = ins.Type.String()
		}
		return fmt.Sprintf("%s = call %s @%s(%s)", ins.Result, retType, ins.Callee, strings.Join(args, ", "))
	default:
		return "<unknown instruction>"
	}
}

func printTerminator(t Terminator) string {
	switch term := t.(type) {
	case *Ret:
		if term.Value == nil {
			return "ret void"
		}
		return fmt.Sprintf("ret %s %s", term.Value.Type(), printOperand(term.Value))
	case *Br:
		return fmt.Sprintf("br label %%%s", term.Target.Label)
	case *CondBr:
		return fmt.Sprintf("br i1 %s, label %%%s, label %%%s", printOperand(term.Cond), term.True.Label, term.False.Label)
	case *Unreachable:
		return "unreachable"
	default:
		return "<unknown terminator>"
	}
}

package ir

import (
	"fmt"
	"strings"
)

// FormatProgram renders a program back to the textual surface syntax.
// It is the inverse of internal/surface's parser and is used for human
// inspection (CLI banners, test fixtures) — the JSON form in Encode
// remains the canonical on-the-wire representation.
func FormatProgram(p *Program) string {
	var b strings.Builder
	for i, fn := range p.Functions {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatFunction(fn))
	}
	return b.String()
}

func FormatFunction(fn *Function) string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(fn.Name)
	b.WriteString("(")
	for i, a := range fn.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Name)
		b.WriteString(": ")
		b.WriteString(a.Type.String())
	}
	b.WriteString(")")
	if fn.RetType != nil {
		b.WriteString(": ")
		b.WriteString(fn.RetType.String())
	}
	b.WriteString(" {\n")
	for _, c := range fn.Code {
		b.WriteString(FormatCode(c))
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func FormatCode(c Code) string {
	switch v := c.(type) {
	case *Label:
		return "." + v.Name + ":"
	case *ConstInstr:
		return fmt.Sprintf("  %s: %s = const %s;", v.DestName, v.DeclType, v.Value)
	case *ValueInstr:
		return fmt.Sprintf("  %s: %s = %s%s;", v.DestName, v.DeclType, v.Op, formatRefs(v.ArgNames, v.FuncRefs, v.LabelRefs))
	case *EffectInstr:
		return fmt.Sprintf("  %s%s;", v.Op, formatRefs(v.ArgNames, v.FuncRefs, v.LabelRefs))
	default:
		return fmt.Sprintf("<unknown code %T>", c)
	}
}

func formatRefs(args, funcs, labels []string) string {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(" ")
		b.WriteString(a)
	}
	for _, f := range funcs {
		b.WriteString(" @")
		b.WriteString(f)
	}
	for _, l := range labels {
		b.WriteString(" .")
		b.WriteString(l)
	}
	return b.String()
}

package surface

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"

	"brilkit/internal/ir"
)

// convert lowers a parsed textual-IR Program into the same ir.Program
// the JSON decoder produces.
func convert(p *Program) (*ir.Program, error) {
	out := &ir.Program{}
	for _, f := range p.Functions {
		fn, err := convertFunction(f)
		if err != nil {
			return nil, err
		}
		out.Functions = append(out.Functions, fn)
	}
	return out, nil
}

func convertFunction(f *Function) (*ir.Function, error) {
	fn := &ir.Function{Name: f.Name, Position: toPos(f.Pos)}
	for _, p := range f.Params {
		typ, err := convertType(p.Type)
		if err != nil {
			return nil, err
		}
		fn.Args = append(fn.Args, ir.Parameter{Name: p.Name, Type: typ})
	}
	if f.Ret != nil {
		typ, err := convertType(f.Ret)
		if err != nil {
			return nil, err
		}
		fn.RetType = typ
	}
	for _, c := range f.Body.Items {
		code, err := convertCode(c)
		if err != nil {
			return nil, err
		}
		fn.Code = append(fn.Code, code)
	}
	return fn, nil
}

func convertType(t *Type) (ir.Type, error) {
	switch t.Name {
	case "int":
		return ir.IntType{}, nil
	case "bool":
		return ir.BoolType{}, nil
	case "float":
		return ir.FloatType{}, nil
	case "char":
		return ir.CharType{}, nil
	case "ptr":
		if t.Elem == nil {
			return nil, &ir.ParseError{Msg: "ptr type requires an element type"}
		}
		elem, err := convertType(t.Elem)
		if err != nil {
			return nil, err
		}
		return ir.PtrType{Elem: elem}, nil
	default:
		return nil, &ir.ParseError{Msg: fmt.Sprintf("unknown type %q", t.Name)}
	}
}

func convertCode(c *Code) (ir.Code, error) {
	if c.Label != nil {
		return &ir.Label{Name: c.Label.Name, Position: toPos(c.Label.Pos)}, nil
	}
	return convertInstr(c.Instr)
}

func convertInstr(in *Instr) (ir.Instr, error) {
	pos := toPos(in.Pos)

	var args, funcs, labels []string
	for _, op := range in.Operands {
		switch {
		case op.Name != nil:
			args = append(args, *op.Name)
		case op.Func != nil:
			funcs = append(funcs, *op.Func)
		case op.Label != nil:
			labels = append(labels, *op.Label)
		}
	}

	if in.Dest != nil && in.Op == "const" {
		declType, err := convertType(in.Dest.Type)
		if err != nil {
			return nil, err
		}
		if len(in.Operands) != 1 || in.Operands[0].Literal == nil {
			return nil, &ir.ParseError{Msg: "const requires exactly one literal operand", Position: pos}
		}
		lit, err := convertLiteral(in.Operands[0].Literal, declType)
		if err != nil {
			return nil, err
		}
		return &ir.ConstInstr{DestName: in.Dest.Name, DeclType: declType, Value: lit, Position: pos}, nil
	}

	if in.Dest != nil {
		declType, err := convertType(in.Dest.Type)
		if err != nil {
			return nil, err
		}
		return &ir.ValueInstr{
			DestName: in.Dest.Name, DeclType: declType, Op: in.Op,
			ArgNames: args, FuncRefs: funcs, LabelRefs: labels, Position: pos,
		}, nil
	}

	return &ir.EffectInstr{Op: in.Op, ArgNames: args, FuncRefs: funcs, LabelRefs: labels, Position: pos}, nil
}

func convertLiteral(l *Literal, declType ir.Type) (ir.Literal, error) {
	switch declType.(type) {
	case ir.BoolType:
		if l.Bool == nil {
			return ir.Literal{}, &ir.ParseError{Msg: "expected a bool literal"}
		}
		return ir.Bool(*l.Bool == "true"), nil
	case ir.IntType:
		if l.Int == nil {
			return ir.Literal{}, &ir.ParseError{Msg: "expected an int literal"}
		}
		n, err := strconv.ParseInt(*l.Int, 10, 64)
		if err != nil {
			return ir.Literal{}, &ir.ParseError{Msg: err.Error()}
		}
		return ir.Int(n), nil
	case ir.FloatType:
		if l.Float == nil {
			return ir.Literal{}, &ir.ParseError{Msg: "expected a float literal"}
		}
		f, err := strconv.ParseFloat(*l.Float, 64)
		if err != nil {
			return ir.Literal{}, &ir.ParseError{Msg: err.Error()}
		}
		return ir.Float(f), nil
	case ir.CharType:
		if l.Char == nil {
			return ir.Literal{}, &ir.ParseError{Msg: "expected a char literal"}
		}
		r := []rune(*l.Char)
		if len(r) != 3 {
			return ir.Literal{}, &ir.ParseError{Msg: "malformed char literal"}
		}
		return ir.Char(r[1]), nil
	default:
		return ir.Literal{}, &ir.ParseError{Msg: "const cannot declare a pointer type"}
	}
}

func toPos(p lexer.Position) *ir.Position {
	return &ir.Position{Line: p.Line, Column: p.Column}
}

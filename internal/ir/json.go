package ir

import (
	"encoding/json"
	"fmt"
)

// This file is the only place in the core that speaks JSON: the spec's
// external interface says "the core consumes only JSON," so every other
// package in this toolkit works exclusively with the Program/Function/
// Instr types above.

type jsonProgram struct {
	Functions []jsonFunction `json:"functions"`
}

type jsonFunction struct {
	Name     string          `json:"name"`
	Args     []jsonArg       `json:"args,omitempty"`
	RetType  json.RawMessage `json:"type,omitempty"`
	Instrs   []jsonCode      `json:"instrs"`
	Position *Position       `json:"pos,omitempty"`
}

type jsonArg struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

// jsonCode is the flattened on-the-wire shape shared by labels and all
// three instruction families; which fields are populated determines
// which Go type it decodes to.
type jsonCode struct {
	Label    *string         `json:"label,omitempty"`
	Op       *string         `json:"op,omitempty"`
	Dest     *string         `json:"dest,omitempty"`
	Type     json.RawMessage `json:"type,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
	Args     []string        `json:"args,omitempty"`
	Funcs    []string        `json:"funcs,omitempty"`
	Labels   []string        `json:"labels,omitempty"`
	Position *Position       `json:"pos,omitempty"`
}

// Decode parses a JSON-encoded program per the spec's external interface.
func Decode(data []byte) (*Program, error) {
	var raw jsonProgram
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}

	prog := &Program{}
	for _, jf := range raw.Functions {
		fn, err := decodeFunction(jf)
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
	}
	return prog, nil
}

func decodeFunction(jf jsonFunction) (*Function, error) {
	fn := &Function{Name: jf.Name, Position: jf.Position}

	for _, a := range jf.Args {
		t, err := decodeType(a.Type)
		if err != nil {
			return nil, fmt.Errorf("function %s arg %s: %w", jf.Name, a.Name, err)
		}
		fn.Args = append(fn.Args, Parameter{Name: a.Name, Type: t})
	}

	if len(jf.RetType) > 0 {
		t, err := decodeType(jf.RetType)
		if err != nil {
			return nil, fmt.Errorf("function %s return type: %w", jf.Name, err)
		}
		fn.RetType = t
	}

	for _, jc := range jf.Instrs {
		code, err := decodeCode(jc)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", jf.Name, err)
		}
		fn.Code = append(fn.Code, code)
	}

	return fn, nil
}

func decodeCode(jc jsonCode) (Code, error) {
	if jc.Label != nil {
		return &Label{Name: *jc.Label, Position: jc.Position}, nil
	}
	if jc.Op == nil {
		return nil, &ParseError{Msg: "instruction missing both label and op"}
	}

	if *jc.Op == "const" {
		t, err := decodeType(jc.Type)
		if err != nil {
			return nil, fmt.Errorf("const %s: %w", derefOr(jc.Dest, "?"), err)
		}
		lit, err := decodeLiteral(jc.Value, t)
		if err != nil {
			return nil, fmt.Errorf("const %s: %w", derefOr(jc.Dest, "?"), err)
		}
		return &ConstInstr{
			DestName: derefOr(jc.Dest, ""),
			DeclType: t,
			Value:    lit,
			Position: jc.Position,
		}, nil
	}

	if jc.Dest != nil {
		t, err := decodeType(jc.Type)
		if err != nil {
			return nil, fmt.Errorf("value op %s dest %s: %w", *jc.Op, *jc.Dest, err)
		}
		return &ValueInstr{
			DestName:  *jc.Dest,
			DeclType:  t,
			Op:        *jc.Op,
			ArgNames:  jc.Args,
			FuncRefs:  jc.Funcs,
			LabelRefs: jc.Labels,
			Position:  jc.Position,
		}, nil
	}

	return &EffectInstr{
		Op:        *jc.Op,
		ArgNames:  jc.Args,
		FuncRefs:  jc.Funcs,
		LabelRefs: jc.Labels,
		Position:  jc.Position,
	}, nil
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

// decodeType accepts either a bare string ("int","bool","float","char")
// or a one-key object {"ptr": <type>} for pointer types.
func decodeType(raw json.RawMessage) (Type, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		switch name {
		case "int":
			return IntType{}, nil
		case "bool":
			return BoolType{}, nil
		case "float":
			return FloatType{}, nil
		case "char":
			return CharType{}, nil
		default:
			return nil, &ParseError{Msg: "unknown type " + name}
		}
	}

	var obj struct {
		Ptr json.RawMessage `json:"ptr"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || obj.Ptr == nil {
		return nil, &ParseError{Msg: "malformed type: " + string(raw)}
	}
	elem, err := decodeType(obj.Ptr)
	if err != nil {
		return nil, err
	}
	return PtrType{Elem: elem}, nil
}

func decodeLiteral(raw json.RawMessage, t Type) (Literal, error) {
	switch t.(type) {
	case IntType:
		var v int64
		if err := json.Unmarshal(raw, &v); err != nil {
			return Literal{}, &ParseError{Msg: "invalid int literal: " + string(raw)}
		}
		return Int(v), nil
	case BoolType:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return Literal{}, &ParseError{Msg: "invalid bool literal: " + string(raw)}
		}
		return Bool(v), nil
	case FloatType:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return Literal{}, &ParseError{Msg: "invalid float literal: " + string(raw)}
		}
		return Float(v), nil
	case CharType:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil || len([]rune(v)) != 1 {
			return Literal{}, &ParseError{Msg: "invalid char literal: " + string(raw)}
		}
		return Char([]rune(v)[0]), nil
	default:
		return Literal{}, &ParseError{Msg: "const instruction missing a declared type"}
	}
}

// Encode serialises a program back to the JSON wire form.
func Encode(prog *Program) ([]byte, error) {
	raw := jsonProgram{}
	for _, fn := range prog.Functions {
		raw.Functions = append(raw.Functions, encodeFunction(fn))
	}
	return json.Marshal(raw)
}

func encodeFunction(fn *Function) jsonFunction {
	jf := jsonFunction{Name: fn.Name, Position: fn.Position}
	for _, a := range fn.Args {
		jf.Args = append(jf.Args, jsonArg{Name: a.Name, Type: encodeType(a.Type)})
	}
	if fn.RetType != nil {
		jf.RetType = encodeType(fn.RetType)
	}
	for _, c := range fn.Code {
		jf.Instrs = append(jf.Instrs, encodeCode(c))
	}
	return jf
}

func encodeType(t Type) json.RawMessage {
	switch v := t.(type) {
	case IntType:
		return json.RawMessage(`"int"`)
	case BoolType:
		return json.RawMessage(`"bool"`)
	case FloatType:
		return json.RawMessage(`"float"`)
	case CharType:
		return json.RawMessage(`"char"`)
	case PtrType:
		inner := encodeType(v.Elem)
		out, _ := json.Marshal(map[string]json.RawMessage{"ptr": inner})
		return out
	default:
		return nil
	}
}

func encodeLiteral(l Literal) json.RawMessage {
	switch l.Kind {
	case LitInt:
		out, _ := json.Marshal(l.Int)
		return out
	case LitBool:
		out, _ := json.Marshal(l.Bool)
		return out
	case LitFloat:
		out, _ := json.Marshal(l.Float)
		return out
	case LitChar:
		out, _ := json.Marshal(string(l.Char))
		return out
	default:
		return nil
	}
}

func encodeCode(c Code) jsonCode {
	switch v := c.(type) {
	case *Label:
		return jsonCode{Label: &v.Name, Position: v.Position}
	case *ConstInstr:
		op := "const"
		return jsonCode{
			Op:       &op,
			Dest:     &v.DestName,
			Type:     encodeType(v.DeclType),
			Value:    encodeLiteral(v.Value),
			Position: v.Position,
		}
	case *ValueInstr:
		return jsonCode{
			Op:       &v.Op,
			Dest:     &v.DestName,
			Type:     encodeType(v.DeclType),
			Args:     v.ArgNames,
			Funcs:    v.FuncRefs,
			Labels:   v.LabelRefs,
			Position: v.Position,
		}
	case *EffectInstr:
		return jsonCode{
			Op:       &v.Op,
			Args:     v.ArgNames,
			Funcs:    v.FuncRefs,
			Labels:   v.LabelRefs,
			Position: v.Position,
		}
	default:
		panic(fmt.Sprintf("ir: unknown Code type %T", c))
	}
}

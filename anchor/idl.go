// Package anchor talks to Anchor programs through their published IDL: it
// fetches the IDL from chain, encodes instructions and decodes accounts.
package anchor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// IDL is an Anchor interface description (0.2x JSON layout)
type IDL struct {
	Version      string        `json:"version"`
	Name         string        `json:"name"`
	Instructions []Instruction `json:"instructions"`
	Accounts     []TypeDef     `json:"accounts,omitempty"`
	Types        []TypeDef     `json:"types,omitempty"`
}

// Instruction describes a callable program procedure
type Instruction struct {
	Name     string               `json:"name"`
	Accounts []InstructionAccount `json:"accounts"`
	Args     []Field              `json:"args"`
}

// InstructionAccount is one account slot of an instruction
type InstructionAccount struct {
	Name     string `json:"name"`
	IsMut    bool   `json:"isMut"`
	IsSigner bool   `json:"isSigner"`
}

// Field is a named, typed value
type Field struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// TypeDef is a named struct or enum layout
type TypeDef struct {
	Name string   `json:"name"`
	Type TypeBody `json:"type"`
}

// TypeBody holds the fields of a struct or the variants of an enum
type TypeBody struct {
	Kind     string    `json:"kind"`
	Fields   []Field   `json:"fields,omitempty"`
	Variants []Variant `json:"variants,omitempty"`
}

// Variant is an enum variant. Tuple variants have fields with empty names.
type Variant struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields,omitempty"`
}

func (v *Variant) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   string            `json:"name"`
		Fields []json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.Name = raw.Name
	v.Fields = nil
	for _, f := range raw.Fields {
		var field struct {
			Name string          `json:"name"`
			Type json.RawMessage `json:"type"`
		}
		if json.Unmarshal(f, &field) == nil && field.Name != "" && field.Type != nil {
			var named Field
			if err := json.Unmarshal(f, &named); err != nil {
				return err
			}
			v.Fields = append(v.Fields, named)
			continue
		}
		var t Type
		if err := json.Unmarshal(f, &t); err != nil {
			return err
		}
		v.Fields = append(v.Fields, Field{Type: t})
	}
	return nil
}

func (v Variant) MarshalJSON() ([]byte, error) {
	out := map[string]any{"name": v.Name}
	if len(v.Fields) == 0 {
		return json.Marshal(out)
	}
	if v.Fields[0].Name == "" {
		types := make([]Type, len(v.Fields))
		for i, f := range v.Fields {
			types[i] = f.Type
		}
		out["fields"] = types
	} else {
		out["fields"] = v.Fields
	}
	return json.Marshal(out)
}

// Type is a reference to a primitive or composite type
type Type struct {
	Primitive string
	Vec       *Type
	Option    *Type
	Array     *Type
	ArrayLen  int
	Defined   string
}

// primitive names accepted in IDL documents
var primitives = map[string]string{
	"bool": "bool", "u8": "u8", "i8": "i8", "u16": "u16", "i16": "i16",
	"u32": "u32", "i32": "i32", "u64": "u64", "i64": "i64",
	"u128": "u128", "i128": "i128", "string": "string", "bytes": "bytes",
	"publicKey": "publicKey", "pubkey": "publicKey",
}

func (t *Type) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		p, ok := primitives[name]
		if !ok {
			return fmt.Errorf("unknown primitive type %q", name)
		}
		*t = Type{Primitive: p}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid type %s: %w", data, err)
	}
	switch {
	case obj["vec"] != nil:
		var inner Type
		if err := json.Unmarshal(obj["vec"], &inner); err != nil {
			return err
		}
		*t = Type{Vec: &inner}
	case obj["option"] != nil:
		var inner Type
		if err := json.Unmarshal(obj["option"], &inner); err != nil {
			return err
		}
		*t = Type{Option: &inner}
	case obj["array"] != nil:
		var parts []json.RawMessage
		if err := json.Unmarshal(obj["array"], &parts); err != nil || len(parts) != 2 {
			return fmt.Errorf("invalid array type %s", obj["array"])
		}
		var inner Type
		if err := json.Unmarshal(parts[0], &inner); err != nil {
			return err
		}
		var n int
		if err := json.Unmarshal(parts[1], &n); err != nil {
			return fmt.Errorf("invalid array length %s", parts[1])
		}
		*t = Type{Array: &inner, ArrayLen: n}
	case obj["defined"] != nil:
		var name string
		if err := json.Unmarshal(obj["defined"], &name); err != nil {
			// newer IDLs wrap the name: {"defined": {"name": "..."}}
			var wrapped struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(obj["defined"], &wrapped); err != nil {
				return err
			}
			name = wrapped.Name
		}
		*t = Type{Defined: name}
	default:
		return fmt.Errorf("unsupported type %s", data)
	}
	return nil
}

func (t Type) MarshalJSON() ([]byte, error) {
	switch {
	case t.Primitive != "":
		return json.Marshal(t.Primitive)
	case t.Vec != nil:
		return json.Marshal(map[string]any{"vec": t.Vec})
	case t.Option != nil:
		return json.Marshal(map[string]any{"option": t.Option})
	case t.Array != nil:
		return json.Marshal(map[string]any{"array": []any{t.Array, t.ArrayLen}})
	case t.Defined != "":
		return json.Marshal(map[string]any{"defined": t.Defined})
	}
	return nil, fmt.Errorf("empty type")
}

func (t Type) String() string {
	switch {
	case t.Primitive != "":
		return t.Primitive
	case t.Vec != nil:
		return "vec<" + t.Vec.String() + ">"
	case t.Option != nil:
		return "option<" + t.Option.String() + ">"
	case t.Array != nil:
		return fmt.Sprintf("[%s; %d]", t.Array, t.ArrayLen)
	}
	return t.Defined
}

// ParseIDL decodes an IDL JSON document
func ParseIDL(data []byte) (*IDL, error) {
	var idl IDL
	if err := json.Unmarshal(data, &idl); err != nil {
		return nil, fmt.Errorf("parse idl: %w", err)
	}
	return &idl, nil
}

// Instruction looks up an instruction by name (camelCase or snake_case)
func (idl *IDL) Instruction(name string) (Instruction, bool) {
	for _, ix := range idl.Instructions {
		if ix.Name == name || snakeCase(ix.Name) == snakeCase(name) {
			return ix, true
		}
	}
	return Instruction{}, false
}

// Account looks up an account layout; the first letter's case is ignored
func (idl *IDL) Account(name string) (TypeDef, bool) {
	if name == "" {
		return TypeDef{}, false
	}
	for _, def := range idl.Accounts {
		if def.Name == "" {
			continue
		}
		if strings.EqualFold(def.Name[:1], name[:1]) && def.Name[1:] == name[1:] {
			return def, true
		}
	}
	return TypeDef{}, false
}

// TypeDef looks up a user-defined type among types and accounts
func (idl *IDL) TypeDef(name string) (TypeDef, bool) {
	for _, def := range idl.Types {
		if def.Name == name {
			return def, true
		}
	}
	for _, def := range idl.Accounts {
		if def.Name == name {
			return def, true
		}
	}
	return TypeDef{}, false
}

// snakeCase converts camelCase identifiers the way Anchor derives sighashes
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				prev := s[i-1]
				if prev != '_' && !(prev >= 'A' && prev <= 'Z') {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

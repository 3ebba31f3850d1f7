// Package schema holds per-program instruction declarations: which named
// operation an 8-byte discriminator maps to, the Borsh layout of its
// arguments, and the roles of the accounts it touches.
package schema

import (
	"fmt"
	"strings"
)

// DiscriminatorLen is the fixed tag length at the front of an instruction
// payload (Anchor convention).
const DiscriminatorLen = 8

type FieldKind string

const (
	KindU8     FieldKind = "u8"
	KindU16    FieldKind = "u16"
	KindU32    FieldKind = "u32"
	KindU64    FieldKind = "u64"
	KindI8     FieldKind = "i8"
	KindI16    FieldKind = "i16"
	KindI32    FieldKind = "i32"
	KindI64    FieldKind = "i64"
	KindBool   FieldKind = "bool"
	KindPubkey FieldKind = "pubkey"
	KindString FieldKind = "string"
	KindBytes  FieldKind = "bytes"
	KindVec    FieldKind = "vec"
	KindStruct FieldKind = "struct"
)

// FieldType describes one argument slot. Vec carries an element type,
// Struct an ordered field list; both recurse.
type FieldType struct {
	Kind   FieldKind
	Elem   *FieldType // Kind == KindVec
	Fields []Field    // Kind == KindStruct
}

type Field struct {
	Name string
	Type FieldType
}

// AccountRole names one account position of an instruction.
type AccountRole struct {
	Name     string
	Writable bool
	Signer   bool
}

// InstructionSchema is one declared operation of a program.
type InstructionSchema struct {
	Name          string
	Discriminator [DiscriminatorLen]byte
	Fields        []Field
	Accounts      []AccountRole
}

var scalarKinds = map[FieldKind]bool{
	KindU8: true, KindU16: true, KindU32: true, KindU64: true,
	KindI8: true, KindI16: true, KindI32: true, KindI64: true,
	KindBool: true, KindPubkey: true, KindString: true, KindBytes: true,
}

// ParseFieldType parses a textual type such as "u64", "pubkey" or
// "vec<vec<u8>>". Struct types cannot be expressed inline; declare them with
// nested fields in the schema file.
func ParseFieldType(s string) (FieldType, error) {
	s = strings.TrimSpace(s)
	if inner, ok := strings.CutPrefix(s, "vec<"); ok {
		inner, ok = strings.CutSuffix(inner, ">")
		if !ok {
			return FieldType{}, fmt.Errorf("unterminated vec type %q", s)
		}
		elem, err := ParseFieldType(inner)
		if err != nil {
			return FieldType{}, err
		}
		return FieldType{Kind: KindVec, Elem: &elem}, nil
	}
	kind := FieldKind(s)
	if !scalarKinds[kind] {
		return FieldType{}, fmt.Errorf("unknown field type %q", s)
	}
	return FieldType{Kind: kind}, nil
}

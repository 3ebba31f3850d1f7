// Package decoder turns raw instruction payloads into named operations with
// typed arguments, using the schemas registered for each program.
package decoder

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/soltrace/soltrace/internal/schema"
)

// ErrMalformedArguments reports a payload whose argument bytes do not match
// the declared layout: short reads, or trailing bytes left after the last
// field. Either way the schema and the payload disagree.
var ErrMalformedArguments = errors.New("malformed instruction arguments")

// Arg is one decoded argument, in declaration order.
type Arg struct {
	Name  string
	Value any
}

// Account is one resolved account position of a decoded instruction.
type Account struct {
	Name     string
	Address  solana.PublicKey
	Writable bool
	Signer   bool
}

// Decoded is the interpretation of one instruction payload.
type Decoded struct {
	Name     string
	Args     []Arg
	Accounts []Account
}

// Decoder matches instruction payloads against a schema registry.
type Decoder struct {
	registry *schema.Registry
}

func New(registry *schema.Registry) *Decoder {
	return &Decoder{registry: registry}
}

// Decode interprets payload as an instruction of programID. accountKeys is
// the transaction's resolved key table and accountIndices the instruction's
// positions into it.
//
// A payload with no matching schema (unknown program, unknown tag, or too
// short to carry a tag) returns (nil, nil): not every instruction is
// declared, and that is not an error. A matching schema whose argument bytes
// do not fit returns ErrMalformedArguments.
func (d *Decoder) Decode(programID solana.PublicKey, payload []byte, accountKeys []solana.PublicKey, accountIndices []uint16) (*Decoded, error) {
	if len(payload) < schema.DiscriminatorLen {
		return nil, nil
	}
	var disc [schema.DiscriminatorLen]byte
	copy(disc[:], payload[:schema.DiscriminatorLen])

	s, ok := d.registry.Lookup(programID, disc)
	if !ok {
		return nil, nil
	}

	args, err := decodeArgs(s, payload[schema.DiscriminatorLen:])
	if err != nil {
		return nil, err
	}

	accounts, err := resolveAccounts(s, accountKeys, accountIndices)
	if err != nil {
		return nil, err
	}

	return &Decoded{Name: s.Name, Args: args, Accounts: accounts}, nil
}

func decodeArgs(s *schema.InstructionSchema, data []byte) ([]Arg, error) {
	dec := bin.NewBorshDecoder(data)
	args := make([]Arg, 0, len(s.Fields))
	for _, f := range s.Fields {
		v, err := decodeValue(dec, f.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q of %q: %v", ErrMalformedArguments, f.Name, s.Name, err)
		}
		args = append(args, Arg{Name: f.Name, Value: v})
	}
	if dec.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after last field of %q",
			ErrMalformedArguments, dec.Remaining(), s.Name)
	}
	return args, nil
}

func decodeValue(dec *bin.Decoder, ft schema.FieldType) (any, error) {
	switch ft.Kind {
	case schema.KindU8:
		return dec.ReadUint8()
	case schema.KindU16:
		return dec.ReadUint16(bin.LE)
	case schema.KindU32:
		return dec.ReadUint32(bin.LE)
	case schema.KindU64:
		return dec.ReadUint64(bin.LE)
	case schema.KindI8:
		return dec.ReadInt8()
	case schema.KindI16:
		return dec.ReadInt16(bin.LE)
	case schema.KindI32:
		return dec.ReadInt32(bin.LE)
	case schema.KindI64:
		return dec.ReadInt64(bin.LE)
	case schema.KindBool:
		return dec.ReadBool()
	case schema.KindString:
		return dec.ReadString()
	case schema.KindBytes:
		return dec.ReadByteSlice()
	case schema.KindPubkey:
		raw, err := dec.ReadNBytes(solana.PublicKeyLength)
		if err != nil {
			return nil, err
		}
		return solana.PublicKeyFromBytes(raw), nil
	case schema.KindVec:
		n, err := dec.ReadUint32(bin.LE)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, n)
		for i := uint32(0); i < n; i++ {
			v, err := decodeValue(dec, *ft.Elem)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case schema.KindStruct:
		out := make(map[string]any, len(ft.Fields))
		for _, f := range ft.Fields {
			v, err := decodeValue(dec, f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			out[f.Name] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %q", ft.Kind)
	}
}

// resolveAccounts maps the instruction's index list through the key table and
// attaches declared role names by position. Positions beyond the declared
// roles keep a positional name; real transactions often pass extra accounts.
func resolveAccounts(s *schema.InstructionSchema, keys []solana.PublicKey, indices []uint16) ([]Account, error) {
	out := make([]Account, 0, len(indices))
	for pos, idx := range indices {
		if int(idx) >= len(keys) {
			return nil, fmt.Errorf("account index %d out of range (%d keys)", idx, len(keys))
		}
		a := Account{Address: keys[idx]}
		if pos < len(s.Accounts) {
			role := s.Accounts[pos]
			a.Name = role.Name
			a.Writable = role.Writable
			a.Signer = role.Signer
		} else {
			a.Name = fmt.Sprintf("account_%d", pos)
		}
		out = append(out, a)
	}
	return out, nil
}

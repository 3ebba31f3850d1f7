package decoder

import (
	"bytes"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltrace/soltrace/internal/schema"
)

var (
	prog1 = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	keyA  = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	keyB  = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
)

func newTestDecoder(t *testing.T, schemas ...*schema.InstructionSchema) *Decoder {
	t.Helper()
	r := schema.NewRegistry()
	for _, s := range schemas {
		require.NoError(t, r.Register(prog1, s))
	}
	return New(r)
}

func encode(t *testing.T, name string, write func(*bin.Encoder)) []byte {
	t.Helper()
	var buf bytes.Buffer
	disc := schema.DeriveDiscriminator(name)
	buf.Write(disc[:])
	if write != nil {
		write(bin.NewBorshEncoder(&buf))
	}
	return buf.Bytes()
}

func TestDecode_Transfer(t *testing.T) {
	d := newTestDecoder(t, &schema.InstructionSchema{
		Name:   "transfer",
		Fields: []schema.Field{{Name: "amount", Type: schema.FieldType{Kind: schema.KindU64}}},
		Accounts: []schema.AccountRole{
			{Name: "source", Writable: true},
			{Name: "destination", Writable: true},
		},
	})

	payload := encode(t, "transfer", func(enc *bin.Encoder) {
		require.NoError(t, enc.WriteUint64(1000, bin.LE))
	})

	got, err := d.Decode(prog1, payload, []solana.PublicKey{keyA, keyB}, []uint16{0, 1})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "transfer", got.Name)
	require.Len(t, got.Args, 1)
	assert.Equal(t, "amount", got.Args[0].Name)
	assert.Equal(t, uint64(1000), got.Args[0].Value)

	require.Len(t, got.Accounts, 2)
	assert.Equal(t, "source", got.Accounts[0].Name)
	assert.Equal(t, keyA, got.Accounts[0].Address)
	assert.True(t, got.Accounts[0].Writable)
	assert.Equal(t, "destination", got.Accounts[1].Name)
	assert.Equal(t, keyB, got.Accounts[1].Address)
}

func TestDecode_UnknownProgramOrTag(t *testing.T) {
	d := newTestDecoder(t, &schema.InstructionSchema{Name: "transfer"})

	// Unknown tag under a known program.
	payload := encode(t, "burn", nil)
	got, err := d.Decode(prog1, payload, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, got)

	// Known tag under an undeclared program.
	payload = encode(t, "transfer", nil)
	got, err = d.Decode(keyA, payload, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, got)

	// Too short to carry a tag at all.
	got, err = d.Decode(prog1, []byte{1, 2, 3}, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestDecode_MalformedArguments(t *testing.T) {
	d := newTestDecoder(t, &schema.InstructionSchema{
		Name:   "transfer",
		Fields: []schema.Field{{Name: "amount", Type: schema.FieldType{Kind: schema.KindU64}}},
	})

	// Short: four bytes where a u64 is declared.
	short := encode(t, "transfer", func(enc *bin.Encoder) {
		require.NoError(t, enc.WriteUint32(7, bin.LE))
	})
	_, err := d.Decode(prog1, short, nil, nil)
	assert.ErrorIs(t, err, ErrMalformedArguments)

	// Trailing bytes after the last declared field.
	long := encode(t, "transfer", func(enc *bin.Encoder) {
		require.NoError(t, enc.WriteUint64(7, bin.LE))
		require.NoError(t, enc.WriteUint8(9))
	})
	_, err = d.Decode(prog1, long, nil, nil)
	assert.ErrorIs(t, err, ErrMalformedArguments)
}

func TestDecode_CompositeTypes(t *testing.T) {
	d := newTestDecoder(t, &schema.InstructionSchema{
		Name: "configure",
		Fields: []schema.Field{
			{Name: "memo", Type: schema.FieldType{Kind: schema.KindString}},
			{Name: "weights", Type: schema.FieldType{
				Kind: schema.KindVec,
				Elem: &schema.FieldType{Kind: schema.KindU16},
			}},
			{Name: "params", Type: schema.FieldType{
				Kind: schema.KindStruct,
				Fields: []schema.Field{
					{Name: "authority", Type: schema.FieldType{Kind: schema.KindPubkey}},
					{Name: "active", Type: schema.FieldType{Kind: schema.KindBool}},
				},
			}},
		},
	})

	payload := encode(t, "configure", func(enc *bin.Encoder) {
		require.NoError(t, enc.WriteString("hello"))
		require.NoError(t, enc.WriteUint32(2, bin.LE))
		require.NoError(t, enc.WriteUint16(3, bin.LE))
		require.NoError(t, enc.WriteUint16(4, bin.LE))
		require.NoError(t, enc.WriteBytes(keyB.Bytes(), false))
		require.NoError(t, enc.WriteBool(true))
	})

	got, err := d.Decode(prog1, payload, nil, nil)
	require.NoError(t, err)
	require.Len(t, got.Args, 3)

	assert.Equal(t, "hello", got.Args[0].Value)
	assert.Equal(t, []any{uint16(3), uint16(4)}, got.Args[1].Value)
	assert.Equal(t, map[string]any{"authority": keyB, "active": true}, got.Args[2].Value)
}

func TestDecode_ExtraAndOutOfRangeAccounts(t *testing.T) {
	d := newTestDecoder(t, &schema.InstructionSchema{
		Name:     "transfer",
		Accounts: []schema.AccountRole{{Name: "source"}},
	})
	payload := encode(t, "transfer", nil)

	// More positions than declared roles fall back to positional names.
	got, err := d.Decode(prog1, payload, []solana.PublicKey{keyA, keyB}, []uint16{0, 1})
	require.NoError(t, err)
	require.Len(t, got.Accounts, 2)
	assert.Equal(t, "source", got.Accounts[0].Name)
	assert.Equal(t, "account_1", got.Accounts[1].Name)

	// An index past the key table is a broken instruction.
	_, err = d.Decode(prog1, payload, []solana.PublicKey{keyA}, []uint16{5})
	assert.Error(t, err)
}

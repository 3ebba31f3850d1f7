package schema

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testProgram = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

func TestDeriveDiscriminator_KnownSighashes(t *testing.T) {
	// Reference values from the Anchor sighash: sha256("global:<name>")[:8].
	cases := map[string][8]byte{
		"transfer":   {163, 52, 200, 231, 140, 3, 69, 186},
		"initialize": {175, 175, 109, 31, 13, 152, 155, 237},
		"swap":       {248, 198, 158, 145, 225, 117, 135, 200},
		"deposit":    {242, 35, 198, 137, 82, 225, 242, 182},
	}
	for name, want := range cases {
		assert.Equal(t, want, DeriveDiscriminator(name), name)
	}
}

func TestDeriveDiscriminator_NotNameBytes(t *testing.T) {
	// The tag must be a hash of the name, not the name itself.
	d := DeriveDiscriminator("transfer")
	assert.NotEqual(t, [8]byte{'t', 'r', 'a', 'n', 's', 'f', 'e', 'r'}, d)
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	s := &InstructionSchema{
		Name:   "transfer",
		Fields: []Field{{Name: "amount", Type: FieldType{Kind: KindU64}}},
	}
	require.NoError(t, r.Register(testProgram, s))

	got, ok := r.Lookup(testProgram, DeriveDiscriminator("transfer"))
	require.True(t, ok)
	assert.Equal(t, "transfer", got.Name)

	_, ok = r.Lookup(testProgram, DeriveDiscriminator("burn"))
	assert.False(t, ok)
}

func TestRegistry_DuplicateDiscriminator(t *testing.T) {
	r := NewRegistry()
	disc := DeriveDiscriminator("transfer")

	require.NoError(t, r.Register(testProgram, &InstructionSchema{
		Name:          "transfer",
		Discriminator: disc,
	}))

	// Same tag, different name: configuration error.
	err := r.Register(testProgram, &InstructionSchema{
		Name:          "withdraw",
		Discriminator: disc,
	})
	assert.ErrorIs(t, err, ErrDuplicateDiscriminator)

	// Same name again is an overwrite, not a collision.
	assert.NoError(t, r.Register(testProgram, &InstructionSchema{
		Name:          "transfer",
		Discriminator: disc,
	}))
}

func TestRegistry_SameDiscriminatorDifferentPrograms(t *testing.T) {
	r := NewRegistry()
	other := solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	disc := DeriveDiscriminator("transfer")

	require.NoError(t, r.Register(testProgram, &InstructionSchema{Name: "transfer", Discriminator: disc}))
	require.NoError(t, r.Register(other, &InstructionSchema{Name: "move", Discriminator: disc}))
}

func TestRegistry_Labels(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, testProgram.String(), r.Label(testProgram))

	r.RegisterLabel(testProgram, "SPL Token")
	assert.Equal(t, "SPL Token", r.Label(testProgram))
}

func TestParseFieldType(t *testing.T) {
	ft, err := ParseFieldType("u64")
	require.NoError(t, err)
	assert.Equal(t, KindU64, ft.Kind)

	ft, err = ParseFieldType("vec<pubkey>")
	require.NoError(t, err)
	require.Equal(t, KindVec, ft.Kind)
	assert.Equal(t, KindPubkey, ft.Elem.Kind)

	ft, err = ParseFieldType("vec<vec<u8>>")
	require.NoError(t, err)
	assert.Equal(t, KindVec, ft.Elem.Kind)
	assert.Equal(t, KindU8, ft.Elem.Elem.Kind)

	_, err = ParseFieldType("u128x")
	assert.Error(t, err)

	_, err = ParseFieldType("vec<u64")
	assert.Error(t, err)
}

package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const declYAML = `
program: "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
label: "SPL Token"
instructions:
  - name: transfer
    args:
      - name: amount
        type: u64
    accounts:
      - name: source
        writable: true
      - name: destination
        writable: true
      - name: authority
        signer: true
  - name: configure
    discriminator: [1, 2, 3, 4, 5, 6, 7, 8]
    args:
      - name: params
        type: struct
        fields:
          - name: fee_bps
            type: u16
          - name: admins
            type: vec<pubkey>
`

func writeDecl(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeDecl(t, dir, "spl-token.yaml", declYAML)
	writeDecl(t, dir, "notes.txt", "ignored")

	r := NewRegistry()
	require.NoError(t, LoadDir(r, dir))

	assert.Equal(t, "SPL Token", r.Label(testProgram))

	// Derived discriminator for the undeclared one.
	s, ok := r.Lookup(testProgram, DeriveDiscriminator("transfer"))
	require.True(t, ok)
	require.Len(t, s.Fields, 1)
	assert.Equal(t, KindU64, s.Fields[0].Type.Kind)
	require.Len(t, s.Accounts, 3)
	assert.True(t, s.Accounts[0].Writable)
	assert.True(t, s.Accounts[2].Signer)

	// Explicit discriminator wins over derivation.
	s, ok = r.Lookup(testProgram, [8]byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.True(t, ok)
	assert.Equal(t, "configure", s.Name)
	require.Len(t, s.Fields, 1)
	require.Equal(t, KindStruct, s.Fields[0].Type.Kind)
	require.Len(t, s.Fields[0].Type.Fields, 2)
	assert.Equal(t, KindVec, s.Fields[0].Type.Fields[1].Type.Kind)
}

func TestLoadDir_Missing(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, LoadDir(r, filepath.Join(t.TempDir(), "nope")))
}

func TestLoadFile_BadProgramID(t *testing.T) {
	dir := t.TempDir()
	writeDecl(t, dir, "bad.yaml", "program: not-a-key\ninstructions: []\n")

	r := NewRegistry()
	assert.Error(t, LoadFile(r, filepath.Join(dir, "bad.yaml")))
}

func TestLoadFile_ShortDiscriminator(t *testing.T) {
	dir := t.TempDir()
	writeDecl(t, dir, "bad.yaml", `
program: "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
instructions:
  - name: transfer
    discriminator: [1, 2, 3]
`)

	r := NewRegistry()
	assert.Error(t, LoadFile(r, filepath.Join(dir, "bad.yaml")))
}

func TestLoadLabels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "labels.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"\"11111111111111111111111111111111\": System Program\n"), 0o644))

	r := NewRegistry()
	require.NoError(t, LoadLabels(r, path))
	sys := solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	assert.Equal(t, "System Program", r.Label(sys))

	// Missing file is fine.
	assert.NoError(t, LoadLabels(r, filepath.Join(dir, "absent.yaml")))
}

package render

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"

	"github.com/soltrace/soltrace/internal/debugger"
	"github.com/soltrace/soltrace/internal/decoder"
	"github.com/soltrace/soltrace/internal/ledger"
)

func TestSOL(t *testing.T) {
	assert.Equal(t, "1 SOL", SOL(1_000_000_000))
	assert.Equal(t, "0.000000001 SOL", SOL(1))
	assert.Equal(t, "2.5 SOL", SOL(2_500_000_000))
	assert.Equal(t, "0 SOL", SOL(0))
}

func TestTrace(t *testing.T) {
	addr := solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
	tx := &debugger.DebugTransaction{
		Signature:    "5abc",
		Network:      "devnet",
		Slot:         42,
		Success:      true,
		ComputeUnits: 200,
		Instructions: []*debugger.DebugInstruction{{
			Index:        1,
			ProgramLabel: "Test Program",
			Name:         "transfer",
			Args:         []decoder.Arg{{Name: "amount", Value: uint64(1000)}},
			Logs:         []string{"Program log: hi"},
		}},
		Diffs: []ledger.AccountDiff{{
			Address: addr,
			Before:  &ledger.AccountSnapshot{Lamports: 1_000_000_000},
			After:   &ledger.AccountSnapshot{Lamports: 500_000_000},
			Changed: map[string]ledger.FieldChange{
				ledger.FieldLamports: {Before: uint64(1_000_000_000), After: uint64(500_000_000)},
			},
		}},
	}

	out := Trace(tx)
	assert.Contains(t, out, "5abc")
	assert.Contains(t, out, "devnet")
	assert.Contains(t, out, "transfer")
	assert.Contains(t, out, "amount")
	assert.Contains(t, out, "1 SOL")
	assert.Contains(t, out, "0.5 SOL")
	assert.Contains(t, out, "200 units")
}

func TestTrace_UnknownInstruction(t *testing.T) {
	tx := &debugger.DebugTransaction{
		Network: "devnet",
		Instructions: []*debugger.DebugInstruction{{
			Index:        1,
			ProgramLabel: "SomeProgram",
		}},
	}
	assert.Contains(t, Trace(tx), "<unknown>")
}

package debugger

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/soltrace/soltrace/internal/decoder"
	"github.com/soltrace/soltrace/internal/ledger"
)

// DebugInstruction is one top-level instruction with everything known about
// it: the logs it produced (its own and those of programs it invoked), and
// the decoded operation when a schema matched.
type DebugInstruction struct {
	Index        int              `json:"index"` // 1-based, transaction order
	ProgramID    solana.PublicKey `json:"program_id"`
	ProgramLabel string           `json:"program_label"`
	Name         string           `json:"name,omitempty"` // empty when no schema matched
	Args         []decoder.Arg    `json:"args,omitempty"`
	Accounts     []decoder.Account `json:"accounts,omitempty"`
	Logs         []string         `json:"logs,omitempty"`
	DecodeErr    string           `json:"decode_err,omitempty"`
	// Diffs covers the writable accounts this instruction touches.
	Diffs []ledger.AccountDiff `json:"diffs,omitempty"`
}

// DebugTransaction is the assembled trace handed to callers.
type DebugTransaction struct {
	Signature    string              `json:"signature,omitempty"` // empty for drafts
	Network      string              `json:"network"`
	Slot         uint64              `json:"slot,omitempty"`
	BlockTime    *time.Time          `json:"block_time,omitempty"`
	Success      bool                `json:"success"`
	Err          string              `json:"err,omitempty"`
	ComputeUnits uint64              `json:"compute_units"`
	Logs         []string            `json:"logs"`
	Instructions []*DebugInstruction `json:"instructions"`
	Diffs        []ledger.AccountDiff `json:"diffs,omitempty"`
}

// Draft is a transaction that has not been submitted anywhere: a payer and a
// list of instructions to simulate against current chain state.
type Draft struct {
	Payer        string             `yaml:"payer" json:"payer"`
	Instructions []DraftInstruction `yaml:"instructions" json:"instructions"`
}

type DraftInstruction struct {
	Program  string         `yaml:"program" json:"program"`
	Accounts []DraftAccount `yaml:"accounts" json:"accounts"`
	// Data is the full instruction payload, discriminator included,
	// base58 encoded.
	Data string `yaml:"data" json:"data"`
}

type DraftAccount struct {
	Address  string `yaml:"address" json:"address"`
	Writable bool   `yaml:"writable" json:"writable"`
	Signer   bool   `yaml:"signer" json:"signer"`
}

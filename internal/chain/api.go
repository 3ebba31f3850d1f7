// Package chain is the boundary to Solana RPC nodes. Everything above it
// talks to the API interface; the rest of the package is the gagliardetto
// client wrapped with rate limiting and retries, one instance per network.
package chain

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/soltrace/soltrace/internal/ledger"
)

// ErrNotFound reports that this network does not know the requested
// signature or account. It is the signal the fallback search keys on, so
// transport failures must never be collapsed into it.
var ErrNotFound = errors.New("not found on network")

// SimulationResult is the outcome of a dry-run execution.
type SimulationResult struct {
	Success       bool
	Err           string // program error when Success is false
	Logs          []string
	UnitsConsumed uint64
	// Accounts holds post-execution snapshots aligned with the addresses
	// passed to Simulate. A nil entry means the account did not exist after
	// the run.
	Accounts []*ledger.AccountSnapshot
}

// API is what the debugger needs from one network.
type API interface {
	// Name identifies the network, e.g. "mainnet-beta".
	Name() string

	// TransactionBySignature fetches a confirmed transaction with metadata.
	// Returns ErrNotFound when the network has no record of it.
	TransactionBySignature(ctx context.Context, sig solana.Signature) (*rpc.GetTransactionResult, error)

	// AccountInfo reads the current state of one account. Returns
	// ErrNotFound for accounts that do not exist.
	AccountInfo(ctx context.Context, addr solana.PublicKey) (*ledger.AccountSnapshot, error)

	// LatestBlockhash returns a blockhash recent enough to simulate with.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)

	// Simulate dry-runs tx without submitting it and reports logs, compute
	// units and the post-execution state of the requested addresses.
	Simulate(ctx context.Context, tx *solana.Transaction, addresses []solana.PublicKey) (*SimulationResult, error)
}

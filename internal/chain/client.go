package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/soltrace/soltrace/internal/ledger"
	"github.com/soltrace/soltrace/pkg/common/logger"
	"github.com/soltrace/soltrace/pkg/ratelimiter"
	"github.com/soltrace/soltrace/pkg/retry"
)

// Client implements API against one RPC endpoint. Calls share a pooled rate
// limiter keyed by network name and retry transient failures with a fixed
// delay; not-found answers are terminal and never retried.
type Client struct {
	name       string
	rpc        *rpc.Client
	commitment rpc.CommitmentType
	limiter    *ratelimiter.Pooled
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

type ClientOptions struct {
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Limiter    *ratelimiter.Pooled
}

func NewClient(name, url, commitment string, opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = retry.DefaultMaxAttempts
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Second
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimiter.NewPooled(10, 20)
	}
	return &Client{
		name:       name,
		rpc:        rpc.New(url),
		commitment: parseCommitment(commitment),
		limiter:    opts.Limiter,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		retryDelay: opts.RetryDelay,
	}
}

func parseCommitment(s string) rpc.CommitmentType {
	switch s {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}

func (c *Client) Name() string { return c.name }

// call runs one RPC under the limiter and retry policy. fn must set its
// result through the closure.
func (c *Client) call(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// retry.Constant has no abort hook, so terminal errors (not found,
	// cancelled context) report success to it and travel out of band.
	var terminal error
	err := retry.Constant(ctx, func() error {
		if err := c.limiter.Wait(ctx, c.name); err != nil {
			terminal = err
			return nil
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, rpc.ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			terminal = err
			return nil
		}
		logger.Debug("rpc call failed, will retry", "network", c.name, "op", op, "error", err)
		return err
	}, c.retryDelay, c.maxRetries)
	if terminal != nil {
		err = terminal
	}

	if errors.Is(err, rpc.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%s on %s: %w", op, c.name, err)
	}
	return nil
}

func (c *Client) TransactionBySignature(ctx context.Context, sig solana.Signature) (*rpc.GetTransactionResult, error) {
	var out *rpc.GetTransactionResult
	version := uint64(0)
	err := c.call(ctx, "getTransaction", func(ctx context.Context) error {
		res, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			Commitment:                     c.commitment,
			MaxSupportedTransactionVersion: &version,
		})
		if err != nil {
			return err
		}
		if res == nil {
			return rpc.ErrNotFound
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AccountInfo(ctx context.Context, addr solana.PublicKey) (*ledger.AccountSnapshot, error) {
	var out *ledger.AccountSnapshot
	err := c.call(ctx, "getAccountInfo", func(ctx context.Context) error {
		res, err := c.rpc.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{
			Commitment: c.commitment,
		})
		if err != nil {
			return err
		}
		if res == nil || res.Value == nil {
			return rpc.ErrNotFound
		}
		out = snapshotFromRPC(addr, res.Value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var out solana.Hash
	err := c.call(ctx, "getLatestBlockhash", func(ctx context.Context) error {
		res, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
		if err != nil {
			return err
		}
		out = res.Value.Blockhash
		return nil
	})
	if err != nil {
		return solana.Hash{}, err
	}
	return out, nil
}

func (c *Client) Simulate(ctx context.Context, tx *solana.Transaction, addresses []solana.PublicKey) (*SimulationResult, error) {
	opts := &rpc.SimulateTransactionOpts{
		SigVerify:              false,
		ReplaceRecentBlockhash: true,
		Commitment:             c.commitment,
	}
	if len(addresses) > 0 {
		opts.Accounts = &rpc.SimulateTransactionAccountsOpts{
			Encoding:  solana.EncodingBase64,
			Addresses: addresses,
		}
	}

	var out *SimulationResult
	err := c.call(ctx, "simulateTransaction", func(ctx context.Context) error {
		res, err := c.rpc.SimulateTransactionWithOpts(ctx, tx, opts)
		if err != nil {
			return err
		}
		if res == nil || res.Value == nil {
			return fmt.Errorf("empty simulation response")
		}
		out = simulationFromRPC(res.Value, addresses)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func snapshotFromRPC(addr solana.PublicKey, a *rpc.Account) *ledger.AccountSnapshot {
	snap := &ledger.AccountSnapshot{
		Address:    addr,
		Owner:      a.Owner,
		Lamports:   a.Lamports,
		Executable: a.Executable,
	}
	if a.RentEpoch != nil {
		snap.RentEpoch = a.RentEpoch.Uint64()
	}
	if a.Data != nil {
		snap.Data = a.Data.GetBinary()
	}
	return snap
}

func simulationFromRPC(v *rpc.SimulateTransactionResult, addresses []solana.PublicKey) *SimulationResult {
	out := &SimulationResult{
		Success: v.Err == nil,
		Logs:    v.Logs,
	}
	if v.Err != nil {
		out.Err = fmt.Sprintf("%v", v.Err)
	}
	if v.UnitsConsumed != nil {
		out.UnitsConsumed = *v.UnitsConsumed
	}
	if len(v.Accounts) > 0 {
		out.Accounts = make([]*ledger.AccountSnapshot, len(v.Accounts))
		for i, a := range v.Accounts {
			if a == nil || i >= len(addresses) {
				continue
			}
			out.Accounts[i] = snapshotFromRPC(addresses[i], a)
		}
	}
	return out
}

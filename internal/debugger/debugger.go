// Package debugger orchestrates a trace: locate the transaction across the
// configured networks, dry-run it, and assemble logs, decoded instructions
// and account diffs into one report.
package debugger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/soltrace/soltrace/internal/chain"
	"github.com/soltrace/soltrace/internal/decoder"
	"github.com/soltrace/soltrace/internal/schema"
	"github.com/soltrace/soltrace/pkg/common/logger"
)

// Store caches assembled traces by signature. Draft runs are never cached;
// they depend on live chain state.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
}

// Emitter publishes completed traces for downstream consumers.
type Emitter interface {
	Emit(ctx context.Context, signature string, payload []byte) error
}

type Options struct {
	// FetchConcurrency bounds parallel account reads per trace.
	FetchConcurrency int
	// Store and Emitter are optional.
	Store   Store
	Emitter Emitter
}

type Debugger struct {
	networks         []chain.API
	registry         *schema.Registry
	dec              *decoder.Decoder
	fetchConcurrency int
	store            Store
	emitter          Emitter
}

func New(networks []chain.API, registry *schema.Registry, opts Options) (*Debugger, error) {
	if len(networks) == 0 {
		return nil, &InputError{Msg: "no networks configured"}
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = 4
	}
	return &Debugger{
		networks:         networks,
		registry:         registry,
		dec:              decoder.New(registry),
		fetchConcurrency: opts.FetchConcurrency,
		store:            opts.Store,
		emitter:          opts.Emitter,
	}, nil
}

// DebugOptions steers one DebugSignature call.
type DebugOptions struct {
	// Network probes the named network first. Empty means configured order.
	Network string
	// DisableFallback stops the search after the first probe.
	DisableFallback bool
	// SkipCache forces a fresh trace even when one is cached.
	SkipCache bool
}

// DebugSignature locates sig, re-simulates it and assembles the trace.
// Networks are probed in order until one knows the signature; a network that
// cannot be reached is skipped, not treated as a miss.
func (d *Debugger) DebugSignature(ctx context.Context, signature string, opts DebugOptions) (*DebugTransaction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, &InputError{Msg: fmt.Sprintf("invalid signature %q", signature), Err: err}
	}

	if d.store != nil && !opts.SkipCache {
		if cached := d.fromCache(signature); cached != nil {
			logger.Debug("trace served from cache", "signature", signature)
			return cached, nil
		}
	}

	net, res, err := d.locate(ctx, sig, opts)
	if err != nil {
		return nil, err
	}
	logger.Info("transaction located", "signature", signature, "network", net.Name())

	rtx, err := resolveTransaction(res)
	if err != nil {
		return nil, &InputError{Msg: "resolve transaction", Err: err}
	}

	writable := rtx.writableAddresses()
	before, beforeErrs := d.fetchSnapshots(ctx, net, writable)

	sim, err := net.Simulate(ctx, rtx.tx, writable)
	if err != nil {
		return nil, &TransportError{Network: net.Name(), Err: err}
	}

	trace := d.assemble(ctx, net, net.Name(), rtx, sim, before, beforeErrs, writable)
	trace.Signature = signature
	trace.Slot = res.Slot
	if res.BlockTime != nil {
		t := res.BlockTime.Time()
		trace.BlockTime = &t
	}

	d.finish(ctx, signature, trace)
	return trace, nil
}

// DebugDraft simulates an unsubmitted transaction against the first
// reachable network (or the named one) and assembles the same trace shape,
// minus signature and slot.
func (d *Debugger) DebugDraft(ctx context.Context, draft *Draft, opts DebugOptions) (*DebugTransaction, error) {
	nets, err := d.probeOrder(opts)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, net := range nets {
		blockhash, err := net.LatestBlockhash(ctx)
		if err != nil {
			lastErr = &TransportError{Network: net.Name(), Err: err}
			logger.Warn("network skipped", "network", net.Name(), "error", err)
			continue
		}

		tx, err := buildDraftTransaction(draft, blockhash)
		if err != nil {
			return nil, err
		}

		rtx := &resolvedTx{tx: tx, keys: tx.Message.AccountKeys, writable: staticWritability(&tx.Message)}
		writable := rtx.writableAddresses()
		before, beforeErrs := d.fetchSnapshots(ctx, net, writable)

		sim, err := net.Simulate(ctx, tx, writable)
		if err != nil {
			lastErr = &TransportError{Network: net.Name(), Err: err}
			logger.Warn("network skipped", "network", net.Name(), "error", err)
			continue
		}

		trace := d.assemble(ctx, net, net.Name(), rtx, sim, before, beforeErrs, writable)
		return trace, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &InputError{Msg: "no network available for draft simulation"}
}

// locate probes the networks in order for the signature. Not-found moves to
// the next network; transport failures are logged and skipped. When every
// network misses, the caller gets a NotFoundError naming them all.
func (d *Debugger) locate(ctx context.Context, sig solana.Signature, opts DebugOptions) (chain.API, *rpc.GetTransactionResult, error) {
	nets, err := d.probeOrder(opts)
	if err != nil {
		return nil, nil, err
	}

	tried := make([]string, 0, len(nets))
	var lastTransport error
	misses := 0
	for _, net := range nets {
		tried = append(tried, net.Name())
		res, err := net.TransactionBySignature(ctx, sig)
		switch {
		case err == nil:
			return net, res, nil
		case errors.Is(err, chain.ErrNotFound):
			misses++
			logger.Debug("signature not on network", "network", net.Name())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, nil, &TransportError{Network: net.Name(), Err: err}
		default:
			lastTransport = &TransportError{Network: net.Name(), Err: err}
			logger.Warn("network unreachable, trying next", "network", net.Name(), "error", err)
		}
	}

	// Only call it not-found when at least one network actually answered.
	if misses == 0 && lastTransport != nil {
		return nil, nil, lastTransport
	}
	return nil, nil, &NotFoundError{Signature: sig.String(), Networks: tried}
}

// probeOrder returns the networks to try: the requested one first, then the
// rest in configured order, minus duplicates. Fallback off means just the
// head of that list. A requested network that is not configured is the
// caller's mistake and fails immediately.
func (d *Debugger) probeOrder(opts DebugOptions) ([]chain.API, error) {
	ordered := make([]chain.API, 0, len(d.networks))
	if opts.Network != "" {
		for _, n := range d.networks {
			if n.Name() == opts.Network {
				ordered = append(ordered, n)
				break
			}
		}
		if len(ordered) == 0 {
			names := make([]string, 0, len(d.networks))
			for _, n := range d.networks {
				names = append(names, n.Name())
			}
			return nil, &InputError{Msg: fmt.Sprintf("unknown network %q (configured: %s)",
				opts.Network, strings.Join(names, ", "))}
		}
	}
	for _, n := range d.networks {
		if len(ordered) > 0 && n.Name() == ordered[0].Name() {
			continue
		}
		ordered = append(ordered, n)
	}
	if opts.DisableFallback && len(ordered) > 1 {
		ordered = ordered[:1]
	}
	return ordered, nil
}

func (d *Debugger) fromCache(signature string) *DebugTransaction {
	data, err := d.store.Get(signature)
	if err != nil || data == nil {
		return nil
	}
	var trace DebugTransaction
	if err := json.Unmarshal(data, &trace); err != nil {
		logger.Warn("cached trace unreadable, ignoring", "signature", signature, "error", err)
		return nil
	}
	return &trace
}

// finish persists and publishes a completed signature trace. Both sides are
// best effort; the trace is already in the caller's hands.
func (d *Debugger) finish(ctx context.Context, signature string, trace *DebugTransaction) {
	if d.store == nil && d.emitter == nil {
		return
	}
	data, err := json.Marshal(trace)
	if err != nil {
		logger.Warn("trace not serializable", "signature", signature, "error", err)
		return
	}
	if d.store != nil {
		if err := d.store.Set(signature, data); err != nil {
			logger.Warn("trace cache write failed", "signature", signature, "error", err)
		}
	}
	if d.emitter != nil {
		if err := d.emitter.Emit(ctx, signature, data); err != nil {
			logger.Warn("trace publish failed", "signature", signature, "error", err)
		}
	}
}

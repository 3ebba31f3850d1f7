package debugger

import (
	"context"
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/soltrace/soltrace/internal/chain"
	"github.com/soltrace/soltrace/internal/ledger"
	"github.com/soltrace/soltrace/internal/logparse"
	"github.com/soltrace/soltrace/pkg/common/logger"
)

// assemble builds the trace from a resolved transaction and its simulation.
// A failed simulation still assembles; the caller gets the logs and state it
// needs to see why the run failed.
func (d *Debugger) assemble(ctx context.Context, net chain.API, network string, rtx *resolvedTx, sim *chain.SimulationResult, before []*ledger.AccountSnapshot, beforeErrs []string, writable []solana.PublicKey) *DebugTransaction {
	out := &DebugTransaction{
		Network: network,
		Success: sim.Success,
		Err:     sim.Err,
		Logs:    sim.Logs,
	}
	// The simulation's total covers every instruction; the per-program
	// consumed lines only cover the first one.
	out.ComputeUnits = sim.UnitsConsumed
	if out.ComputeUnits == 0 {
		if cu, ok := logparse.ComputeUnitsConsumed(sim.Logs); ok {
			out.ComputeUnits = cu
		}
	}
	if !sim.Success && out.Err == "" && !logparse.IsSuccess(sim.Logs) {
		out.Err = "transaction failed"
	}

	buckets := logparse.GroupByInstruction(sim.Logs)
	out.Diffs = d.buildDiffs(ctx, net, sim, before, beforeErrs, writable)

	byAddr := make(map[solana.PublicKey]ledger.AccountDiff, len(out.Diffs))
	for _, df := range out.Diffs {
		byAddr[df.Address] = df
	}
	out.Instructions = d.buildInstructions(rtx, buckets, byAddr)
	return out
}

// buildInstructions pairs each compiled instruction with its log bucket and
// runs the schema decoder over its payload. Decode failures stay on the one
// instruction; the rest of the trace is unaffected.
func (d *Debugger) buildInstructions(rtx *resolvedTx, buckets map[int][]string, diffs map[solana.PublicKey]ledger.AccountDiff) []*DebugInstruction {
	msg := &rtx.tx.Message
	out := make([]*DebugInstruction, 0, len(msg.Instructions))

	for i, ins := range msg.Instructions {
		index := i + 1
		di := &DebugInstruction{
			Index: index,
			Logs:  buckets[index],
		}
		if int(ins.ProgramIDIndex) < len(rtx.keys) {
			di.ProgramID = rtx.keys[ins.ProgramIDIndex]
			di.ProgramLabel = d.registry.Label(di.ProgramID)
		}

		decoded, err := d.dec.Decode(di.ProgramID, ins.Data, rtx.keys, ins.Accounts)
		switch {
		case err != nil:
			di.DecodeErr = err.Error()
		case decoded != nil:
			di.Name = decoded.Name
			di.Args = decoded.Args
			di.Accounts = decoded.Accounts
		}

		seen := make(map[solana.PublicKey]bool, len(ins.Accounts))
		for _, idx := range ins.Accounts {
			if int(idx) >= len(rtx.keys) {
				continue
			}
			addr := rtx.keys[idx]
			if seen[addr] {
				continue
			}
			seen[addr] = true
			if df, ok := diffs[addr]; ok {
				di.Diffs = append(di.Diffs, df)
			}
		}
		out = append(out, di)
	}
	return out
}

// buildDiffs pairs before snapshots with the post-execution accounts the
// simulation returned. When the simulation carried no account section the
// after side falls back to a re-fetch, which reads live state rather than
// the dry run's outcome but still beats reporting nothing.
func (d *Debugger) buildDiffs(ctx context.Context, net chain.API, sim *chain.SimulationResult, before []*ledger.AccountSnapshot, beforeErrs []string, writable []solana.PublicKey) []ledger.AccountDiff {
	if len(writable) == 0 {
		return nil
	}

	after := sim.Accounts
	var afterErrs []string
	if after == nil {
		after, afterErrs = d.fetchSnapshots(ctx, net, writable)
	}

	out := make([]ledger.AccountDiff, 0, len(writable))
	for i, addr := range writable {
		var b, a *ledger.AccountSnapshot
		if i < len(before) {
			b = before[i]
		}
		if i < len(after) {
			a = after[i]
		}
		diff := ledger.Diff(addr, b, a)
		if i < len(beforeErrs) && beforeErrs[i] != "" {
			diff.Err = beforeErrs[i]
		} else if i < len(afterErrs) && afterErrs[i] != "" {
			diff.Err = afterErrs[i]
		}
		if diff.Empty() && diff.Err == "" {
			continue
		}
		out = append(out, diff)
	}
	return out
}

// fetchSnapshots reads the current state of every address with bounded
// concurrency. A missing account is a nil snapshot, not an error; transport
// failures are recorded per address so one bad read cannot sink the trace.
func (d *Debugger) fetchSnapshots(ctx context.Context, net chain.API, addrs []solana.PublicKey) ([]*ledger.AccountSnapshot, []string) {
	out := make([]*ledger.AccountSnapshot, len(addrs))
	errs := make([]string, len(addrs))
	sem := make(chan struct{}, d.fetchConcurrency)
	var wg sync.WaitGroup

	for i, addr := range addrs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, addr solana.PublicKey) {
			defer wg.Done()
			defer func() { <-sem }()

			snap, err := net.AccountInfo(ctx, addr)
			if err != nil {
				if !errors.Is(err, chain.ErrNotFound) {
					errs[i] = err.Error()
					logger.Warn("account fetch failed", "address", addr.String(), "error", err)
				}
				return
			}
			out[i] = snap
		}(i, addr)
	}
	wg.Wait()
	return out, errs
}

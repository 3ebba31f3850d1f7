package debugger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
)

// resolvedTx is a fetched transaction with its full runtime key table. For
// versioned transactions the table extends past the static message keys with
// the addresses the runtime loaded from lookup tables, writable first.
type resolvedTx struct {
	tx       *solana.Transaction
	keys     []solana.PublicKey
	writable []bool
}

func resolveTransaction(res *rpc.GetTransactionResult) (*resolvedTx, error) {
	if res.Transaction == nil {
		return nil, fmt.Errorf("transaction envelope missing")
	}
	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("parse transaction: %w", err)
	}

	switch tx.Message.GetVersion() {
	case solana.MessageVersionLegacy:
		return newLegacyResolved(tx), nil
	default:
		return newVersionedResolved(tx, res.Meta), nil
	}
}

// newLegacyResolved covers pre-versioning messages: the static key list is
// the whole table.
func newLegacyResolved(tx *solana.Transaction) *resolvedTx {
	return &resolvedTx{
		tx:       tx,
		keys:     append([]solana.PublicKey(nil), tx.Message.AccountKeys...),
		writable: staticWritability(&tx.Message),
	}
}

// newVersionedResolved extends the static table with the lookup-table
// addresses the runtime loaded, recorded in the transaction meta.
func newVersionedResolved(tx *solana.Transaction, meta *rpc.TransactionMeta) *resolvedTx {
	r := newLegacyResolved(tx)
	if meta == nil {
		return r
	}
	for _, k := range meta.LoadedAddresses.Writable {
		r.keys = append(r.keys, k)
		r.writable = append(r.writable, true)
	}
	for _, k := range meta.LoadedAddresses.ReadOnly {
		r.keys = append(r.keys, k)
		r.writable = append(r.writable, false)
	}
	return r
}

// staticWritability applies the message header to the static key list:
// signers come first with the readonly ones at the tail of the signer range,
// then non-signers with the readonly ones at the very end.
func staticWritability(msg *solana.Message) []bool {
	n := len(msg.AccountKeys)
	signers := int(msg.Header.NumRequiredSignatures)
	roSigned := int(msg.Header.NumReadonlySignedAccounts)
	roUnsigned := int(msg.Header.NumReadonlyUnsignedAccounts)

	out := make([]bool, n)
	for i := range out {
		if i < signers {
			out[i] = i < signers-roSigned
		} else {
			out[i] = i < n-roUnsigned
		}
	}
	return out
}

// writableAddresses returns the keys the transaction may modify, in table
// order. These are the accounts worth snapshotting and diffing.
func (r *resolvedTx) writableAddresses() []solana.PublicKey {
	out := make([]solana.PublicKey, 0, len(r.keys))
	for i, k := range r.keys {
		if i < len(r.writable) && r.writable[i] {
			out = append(out, k)
		}
	}
	return out
}

// buildDraftTransaction turns a draft into an unsigned transaction ready to
// simulate. Signature verification is off during simulation, so the payer
// only needs to be a valid address.
func buildDraftTransaction(d *Draft, blockhash solana.Hash) (*solana.Transaction, error) {
	if len(d.Instructions) == 0 {
		return nil, &InputError{Msg: "draft has no instructions"}
	}
	payer, err := solana.PublicKeyFromBase58(d.Payer)
	if err != nil {
		return nil, &InputError{Msg: fmt.Sprintf("invalid payer %q", d.Payer), Err: err}
	}

	instrs := make([]solana.Instruction, 0, len(d.Instructions))
	for i, di := range d.Instructions {
		program, err := solana.PublicKeyFromBase58(di.Program)
		if err != nil {
			return nil, &InputError{Msg: fmt.Sprintf("instruction %d: invalid program %q", i, di.Program), Err: err}
		}
		data, err := base58.Decode(di.Data)
		if err != nil {
			return nil, &InputError{Msg: fmt.Sprintf("instruction %d: invalid data", i), Err: err}
		}
		metas := make(solana.AccountMetaSlice, 0, len(di.Accounts))
		for _, a := range di.Accounts {
			addr, err := solana.PublicKeyFromBase58(a.Address)
			if err != nil {
				return nil, &InputError{Msg: fmt.Sprintf("instruction %d: invalid account %q", i, a.Address), Err: err}
			}
			metas = append(metas, solana.NewAccountMeta(addr, a.Writable, a.Signer))
		}
		instrs = append(instrs, solana.NewInstruction(program, metas, data))
	}

	tx, err := solana.NewTransaction(instrs, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, &InputError{Msg: "build draft transaction", Err: err}
	}
	return tx, nil
}

package ledger

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
)

// Field names appearing in AccountDiff.Changed.
const (
	FieldLamports   = "lamports"
	FieldData       = "data"
	FieldOwner      = "owner"
	FieldExecutable = "executable"
	FieldRentEpoch  = "rent_epoch"
)

// FieldChange carries the before/after values of one changed field. A nil
// value means the account was absent on that side, which is distinct from
// any present value (including zero).
type FieldChange struct {
	Before any `json:"before"`
	After  any `json:"after"`
}

// AccountDiff is the structured comparison of two snapshots of the same
// address. Created accounts have Before==nil, closed accounts After==nil.
type AccountDiff struct {
	Address solana.PublicKey       `json:"address"`
	Before  *AccountSnapshot       `json:"before,omitempty"`
	After   *AccountSnapshot       `json:"after,omitempty"`
	Changed map[string]FieldChange `json:"changed,omitempty"`
	// Err records a per-account fetch failure; the rest of the trace is
	// unaffected.
	Err string `json:"error,omitempty"`
}

// Created reports whether the account came into existence.
func (d AccountDiff) Created() bool { return d.Before == nil && d.After != nil }

// Closed reports whether the account was removed.
func (d AccountDiff) Closed() bool { return d.Before != nil && d.After == nil }

// Empty reports whether nothing changed.
func (d AccountDiff) Empty() bool { return len(d.Changed) == 0 && !d.Created() && !d.Closed() }

// Diff compares two snapshots field by field. A field enters Changed only
// when the two values differ; data is compared byte for byte.
func Diff(address solana.PublicKey, before, after *AccountSnapshot) AccountDiff {
	d := AccountDiff{
		Address: address,
		Before:  before,
		After:   after,
		Changed: map[string]FieldChange{},
	}

	switch {
	case before == nil && after == nil:
		return d
	case before == nil:
		d.Changed[FieldLamports] = FieldChange{Before: nil, After: after.Lamports}
		if len(after.Data) > 0 {
			d.Changed[FieldData] = FieldChange{Before: nil, After: after.Data}
		}
		return d
	case after == nil:
		d.Changed[FieldLamports] = FieldChange{Before: before.Lamports, After: nil}
		if len(before.Data) > 0 {
			d.Changed[FieldData] = FieldChange{Before: before.Data, After: nil}
		}
		return d
	}

	if before.Lamports != after.Lamports {
		d.Changed[FieldLamports] = FieldChange{Before: before.Lamports, After: after.Lamports}
	}
	if !bytes.Equal(before.Data, after.Data) {
		d.Changed[FieldData] = FieldChange{Before: before.Data, After: after.Data}
	}
	if !before.Owner.Equals(after.Owner) {
		d.Changed[FieldOwner] = FieldChange{Before: before.Owner, After: after.Owner}
	}
	if before.Executable != after.Executable {
		d.Changed[FieldExecutable] = FieldChange{Before: before.Executable, After: after.Executable}
	}
	if before.RentEpoch != after.RentEpoch {
		d.Changed[FieldRentEpoch] = FieldChange{Before: before.RentEpoch, After: after.RentEpoch}
	}
	return d
}

package ledger

import (
	"github.com/gagliardetto/solana-go"
)

// AccountSnapshot is an immutable capture of an account's on-chain fields at
// one instant. "After" state is always a new snapshot, never a mutation.
type AccountSnapshot struct {
	Address    solana.PublicKey `json:"address"`
	Owner      solana.PublicKey `json:"owner"`
	Lamports   uint64           `json:"lamports"`
	Data       []byte           `json:"data,omitempty"`
	Executable bool             `json:"executable"`
	RentEpoch  uint64           `json:"rent_epoch"`
	Label      string           `json:"label,omitempty"`
}

// Clone returns a deep copy so callers can hold snapshots across later
// fetches without aliasing Data.
func (s *AccountSnapshot) Clone() *AccountSnapshot {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Data != nil {
		cp.Data = append([]byte(nil), s.Data...)
	}
	return &cp
}

package schema

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// ErrDuplicateDiscriminator is a registration-time configuration error: two
// differently named instructions of one program cannot share a tag.
var ErrDuplicateDiscriminator = fmt.Errorf("duplicate instruction discriminator")

// Registry maps (program, discriminator) to instruction schemas and keeps
// program display labels. Registration is a setup-time operation behind the
// write lock; lookups are concurrent.
type Registry struct {
	mu       sync.RWMutex
	programs map[solana.PublicKey]map[[DiscriminatorLen]byte]*InstructionSchema
	labels   map[solana.PublicKey]string
}

func NewRegistry() *Registry {
	return &Registry{
		programs: make(map[solana.PublicKey]map[[DiscriminatorLen]byte]*InstructionSchema),
		labels:   make(map[solana.PublicKey]string),
	}
}

// Register adds an instruction schema under programID. A zero discriminator
// is filled in from the instruction name via the Anchor sighash. Registering
// the same name twice overwrites; a colliding discriminator with a different
// name fails with ErrDuplicateDiscriminator.
func (r *Registry) Register(programID solana.PublicKey, s *InstructionSchema) error {
	if s.Name == "" {
		return fmt.Errorf("instruction schema has no name")
	}
	if s.Discriminator == ([DiscriminatorLen]byte{}) {
		s.Discriminator = DeriveDiscriminator(s.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byDisc, ok := r.programs[programID]
	if !ok {
		byDisc = make(map[[DiscriminatorLen]byte]*InstructionSchema)
		r.programs[programID] = byDisc
	}
	if existing, ok := byDisc[s.Discriminator]; ok && existing.Name != s.Name {
		return fmt.Errorf("%w: program %s, %q vs %q",
			ErrDuplicateDiscriminator, programID, existing.Name, s.Name)
	}
	byDisc[s.Discriminator] = s
	return nil
}

// Lookup resolves a discriminator under programID.
func (r *Registry) Lookup(programID solana.PublicKey, disc [DiscriminatorLen]byte) (*InstructionSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.programs[programID][disc]
	return s, ok
}

// RegisterLabel attaches a human-readable display name to an address.
func (r *Registry) RegisterLabel(addr solana.PublicKey, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels[addr] = label
}

// Label returns the display name for addr, falling back to its base58 form.
func (r *Registry) Label(addr solana.PublicKey) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.labels[addr]; ok {
		return l
	}
	return addr.String()
}

// Programs returns the registered program ids, for listing.
func (r *Registry) Programs() []solana.PublicKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]solana.PublicKey, 0, len(r.programs))
	for p := range r.programs {
		out = append(out, p)
	}
	return out
}

// Instructions returns the schemas registered under programID.
func (r *Registry) Instructions(programID solana.PublicKey) []*InstructionSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*InstructionSchema, 0, len(r.programs[programID]))
	for _, s := range r.programs[programID] {
		out = append(out, s)
	}
	return out
}

package schema

import "crypto/sha256"

// anchorNamespace is the namespace Anchor prepends when hashing a global
// instruction name into its discriminator.
const anchorNamespace = "global"

// DeriveDiscriminator computes the Anchor sighash for an instruction name:
// the first 8 bytes of sha256("global:<name>"). This must stay a real hash;
// on-chain programs compare against exactly this value.
func DeriveDiscriminator(name string) [DiscriminatorLen]byte {
	sum := sha256.Sum256([]byte(anchorNamespace + ":" + name))
	var d [DiscriminatorLen]byte
	copy(d[:], sum[:DiscriminatorLen])
	return d
}

// Package ids generates unique identifiers for ledger objects.
package ids

import (
	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/google/uuid"
)

// Sequence hands out ids derived from a namespace and a monotonic counter.
// Two sequences with different namespaces never collide, and a sequence
// restored with Resume continues where the persisted one stopped.
type Sequence struct {
	ns   types.Hash
	next uint64
}

// NewSequence starts a sequence at counter zero.
func NewSequence(ns types.Hash) *Sequence {
	return &Sequence{ns: ns}
}

// Resume recreates a sequence whose next counter value is next.
func Resume(ns types.Hash, next uint64) *Sequence {
	return &Sequence{ns: ns, next: next}
}

// Next returns a fresh id.
func (s *Sequence) Next() types.Hash {
	id := crypto.DeriveID(s.ns, s.next)
	s.next++
	return id
}

// Counter returns the counter the next id will be derived from.
func (s *Sequence) Counter() uint64 {
	return s.next
}

// Namespace returns the sequence namespace.
func (s *Sequence) Namespace() types.Hash {
	return s.ns
}

// NamespaceOf derives a sequence namespace for the object identified by id.
func NamespaceOf(label string, id uuid.UUID) types.Hash {
	return crypto.HashParts([]byte(label), []byte{0}, id[:])
}

// NewObjectID returns a random identity for a root object.
func NewObjectID() uuid.UUID {
	return uuid.New()
}

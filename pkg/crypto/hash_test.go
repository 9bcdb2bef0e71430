package crypto

import (
	"bytes"
	"testing"

	"github.com/Klingon-tech/klingswap/pkg/types"
)

func TestHash_Deterministic(t *testing.T) {
	a := Hash([]byte("klingswap"))
	b := Hash([]byte("klingswap"))
	if a != b {
		t.Errorf("Hash not deterministic: %s != %s", a, b)
	}
	if a == Hash([]byte("klingswap!")) {
		t.Error("different inputs should hash differently")
	}
}

func TestHashParts_EqualsConcat(t *testing.T) {
	parts := [][]byte{[]byte("method"), {0}, []byte(`{"amount":5}`)}
	want := Hash(bytes.Join(parts, nil))
	if got := HashParts(parts...); got != want {
		t.Errorf("HashParts = %s, want %s", got, want)
	}
}

func TestDeriveID(t *testing.T) {
	ns := Hash([]byte("ns"))

	ids := make(map[types.Hash]bool)
	for i := uint64(0); i < 100; i++ {
		id := DeriveID(ns, i)
		if ids[id] {
			t.Fatalf("duplicate id at counter %d", i)
		}
		ids[id] = true
	}

	if DeriveID(ns, 7) != DeriveID(ns, 7) {
		t.Error("DeriveID should be deterministic")
	}
	if DeriveID(ns, 7) == DeriveID(Hash([]byte("other")), 7) {
		t.Error("different namespaces should give different ids")
	}
}

func TestAddressFromPubKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pub := key.PublicKey()
	addr := AddressFromPubKey(pub)

	h := Hash(pub)
	if !bytes.Equal(addr[:], h[:types.AddressSize]) {
		t.Errorf("address = %x, want prefix of %x", addr, h)
	}
}

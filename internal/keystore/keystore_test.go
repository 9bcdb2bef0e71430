package keystore

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Klingon-tech/klingswap/config"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// fastParams returns low-cost Argon2 params for fast tests.
func fastParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64, // 64 KiB (minimal)
		Iterations:  1,
		Parallelism: 1,
	}
}

func testKeystore(t *testing.T) *Keystore {
	t.Helper()
	ks, err := New(filepath.Join(t.TempDir(), "keystore"), fastParams())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return ks
}

func TestGenerateMnemonic(t *testing.T) {
	m, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("GenerateMnemonic() error: %v", err)
	}
	if words := len(strings.Fields(m)); words != 24 {
		t.Errorf("word count = %d, want 24", words)
	}
	if !ValidateMnemonic(m) {
		t.Error("generated mnemonic does not validate")
	}
}

func TestSeedFromMnemonic_Invalid(t *testing.T) {
	for _, m := range []string{"", "abandon", strings.Repeat("abandon ", 24)} {
		if _, err := SeedFromMnemonic(m, ""); !errors.Is(err, ErrInvalidMnemonic) {
			t.Errorf("SeedFromMnemonic(%q) err = %v, want ErrInvalidMnemonic", m, err)
		}
	}
}

func TestDeriveKey_TestnetIdentity(t *testing.T) {
	seed, err := SeedFromMnemonic(config.TestnetMnemonic, "")
	if err != nil {
		t.Fatal(err)
	}
	priv, err := DeriveKey(seed, Path{})
	if err != nil {
		t.Fatalf("DeriveKey() error: %v", err)
	}
	if got := hex.EncodeToString(priv.Serialize()); got != config.TestnetPrivKey {
		t.Errorf("private key = %s, want %s", got, config.TestnetPrivKey)
	}
	if got := hex.EncodeToString(priv.PublicKey()); got != config.TestnetPubKey {
		t.Errorf("public key = %s, want %s", got, config.TestnetPubKey)
	}
	want, _ := types.ParseAddress(config.TestnetAddress)
	if priv.Address() != want {
		t.Errorf("address = %s, want %s", priv.Address().Hex(), want.Hex())
	}
}

func TestDeriveKey_DistinctPaths(t *testing.T) {
	seed, err := SeedFromMnemonic(config.TestnetMnemonic, "")
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[types.Address]Path)
	for _, p := range []Path{{0, 0}, {0, 1}, {1, 0}} {
		priv, err := DeriveKey(seed, p)
		if err != nil {
			t.Fatalf("DeriveKey(%s) error: %v", p, err)
		}
		if prev, dup := seen[priv.Address()]; dup {
			t.Errorf("%s and %s derive the same address", prev, p)
		}
		seen[priv.Address()] = p
	}
	if _, err := DeriveKey(seed[:32], Path{}); err == nil {
		t.Error("expected error for short seed")
	}
}

func TestPath_String(t *testing.T) {
	if got := (Path{Account: 2, Index: 7}).String(); got != "m/44'/8888'/2'/0/7" {
		t.Errorf("String() = %s", got)
	}
}

func TestEncryptDecrypt(t *testing.T) {
	plaintext := []byte("seed material")
	enc, err := Encrypt(plaintext, []byte("pw"), fastParams())
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	dec, err := Decrypt(enc, []byte("pw"))
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if !bytes.Equal(dec, plaintext) {
		t.Error("decrypted data does not match")
	}

	if _, err := Decrypt(enc, []byte("nope")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("wrong password err = %v, want ErrWrongPassword", err)
	}
	enc[len(enc)-1] ^= 0xff
	if _, err := Decrypt(enc, []byte("pw")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("tampered err = %v, want ErrWrongPassword", err)
	}
	if _, err := Decrypt(enc[:10], []byte("pw")); err == nil {
		t.Error("expected error for truncated data")
	}
}

func TestKeystore_CreateUnlock(t *testing.T) {
	ks := testKeystore(t)
	password := []byte("test-password")

	info, err := ks.Create("admin", config.TestnetMnemonic, Path{}, password)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if info.PubKey != config.TestnetPubKey {
		t.Errorf("pubkey = %s, want %s", info.PubKey, config.TestnetPubKey)
	}
	if info.Path != "m/44'/8888'/0'/0/0" {
		t.Errorf("path = %s", info.Path)
	}

	priv, err := ks.Unlock("admin", password)
	if err != nil {
		t.Fatalf("Unlock() error: %v", err)
	}
	if priv.Address() != info.Address {
		t.Errorf("unlocked address = %s, want %s", priv.Address(), info.Address)
	}
	if _, err := ks.Unlock("admin", []byte("wrong")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("wrong password err = %v, want ErrWrongPassword", err)
	}

	fi, err := os.Stat(filepath.Join(ks.dir, "admin.key"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := fi.Mode().Perm(); perm != 0600 {
		t.Errorf("key file mode = %o, want 600", perm)
	}
}

func TestKeystore_Errors(t *testing.T) {
	ks := testKeystore(t)
	if _, err := ks.Create("dup", config.TestnetMnemonic, Path{}, []byte("pw")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		key      string
		mnemonic string
		want     error
	}{
		{"duplicate", "dup", config.TestnetMnemonic, ErrKeyExists},
		{"path traversal", "../evil", config.TestnetMnemonic, ErrInvalidName},
		{"empty name", "", config.TestnetMnemonic, ErrInvalidName},
		{"bad mnemonic", "other", "abandon abandon", ErrInvalidMnemonic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ks.Create(tt.key, tt.mnemonic, Path{}, []byte("pw")); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := ks.Unlock("missing", []byte("pw")); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Unlock(missing) err = %v, want ErrKeyNotFound", err)
	}
	if err := ks.Delete("missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Delete(missing) err = %v, want ErrKeyNotFound", err)
	}
}

func TestKeystore_ListDelete(t *testing.T) {
	ks := testKeystore(t)
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"zeta", "alpha"} {
		if _, err := ks.Create(name, mnemonic, Path{Index: uint32(len(name))}, []byte("pw")); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(ks.dir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	list, err := ks.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 2 || list[0].Name != "alpha" || list[1].Name != "zeta" {
		t.Fatalf("List() = %+v, want alpha, zeta", list)
	}

	if err := ks.Delete("alpha"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	list, err = ks.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "zeta" {
		t.Errorf("List() after delete = %+v", list)
	}
}

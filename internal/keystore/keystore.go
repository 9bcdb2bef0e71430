package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Klingon-tech/klingswap/internal/log"
	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

const keyExt = ".key"

// Keystore errors.
var (
	ErrKeyExists   = errors.New("key already exists")
	ErrKeyNotFound = errors.New("key not found")
	ErrInvalidName = errors.New("invalid key name")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// keyFile is the on-disk JSON format of one key.
type keyFile struct {
	Version       int           `json:"version"`
	CreatedAt     time.Time     `json:"created_at"`
	Address       types.Address `json:"address"`
	PubKey        string        `json:"pubkey"`
	Path          Path          `json:"path"`
	EncryptedSeed []byte        `json:"encrypted_seed"`
}

// KeyInfo is the public part of a stored key.
type KeyInfo struct {
	Name      string        `json:"name"`
	Address   types.Address `json:"address"`
	PubKey    string        `json:"pubkey"`
	Path      string        `json:"path"`
	CreatedAt time.Time     `json:"created_at"`
}

// Keystore stores encrypted keys in a directory, one file per name.
type Keystore struct {
	dir    string
	params EncryptionParams
}

// New opens the keystore in dir, creating the directory if needed.
func New(dir string, params EncryptionParams) (*Keystore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{dir: dir, params: params}, nil
}

func (ks *Keystore) path(name string) string {
	return filepath.Join(ks.dir, name+keyExt)
}

// Create stores the key derived from mnemonic at p under name.
func (ks *Keystore) Create(name, mnemonic string, p Path, password []byte) (KeyInfo, error) {
	if !validName.MatchString(name) {
		return KeyInfo{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	path := ks.path(name)
	if _, err := os.Stat(path); err == nil {
		return KeyInfo{}, fmt.Errorf("%w: %s", ErrKeyExists, name)
	}

	seed, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return KeyInfo{}, err
	}
	defer wipe(seed)
	priv, err := DeriveKey(seed, p)
	if err != nil {
		return KeyInfo{}, err
	}
	defer priv.Zero()

	encrypted, err := Encrypt(seed, password, ks.params)
	if err != nil {
		return KeyInfo{}, fmt.Errorf("encrypt seed: %w", err)
	}
	kf := &keyFile{
		Version:       1,
		CreatedAt:     time.Now().UTC(),
		Address:       priv.Address(),
		PubKey:        fmt.Sprintf("%x", priv.PublicKey()),
		Path:          p,
		EncryptedSeed: encrypted,
	}
	if err := writeKeyFile(path, kf); err != nil {
		return KeyInfo{}, err
	}
	log.Keystore.Debug().Str("name", name).Str("path", p.String()).Msg("Key stored")
	return kf.info(name), nil
}

// Unlock decrypts the key stored under name.
func (ks *Keystore) Unlock(name string, password []byte) (*crypto.PrivateKey, error) {
	kf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	seed, err := Decrypt(kf.EncryptedSeed, password)
	if err != nil {
		return nil, fmt.Errorf("unlock %s: %w", name, err)
	}
	defer wipe(seed)

	priv, err := DeriveKey(seed, kf.Path)
	if err != nil {
		return nil, err
	}
	if addr := priv.Address(); addr != kf.Address {
		priv.Zero()
		return nil, fmt.Errorf("unlock %s: derived address %s does not match %s", name, addr, kf.Address)
	}
	return priv, nil
}

// Info returns the public part of the key stored under name.
func (ks *Keystore) Info(name string) (KeyInfo, error) {
	kf, err := ks.read(name)
	if err != nil {
		return KeyInfo{}, err
	}
	return kf.info(name), nil
}

// List returns every stored key ordered by name.
func (ks *Keystore) List() ([]KeyInfo, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var out []KeyInfo
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != keyExt {
			continue
		}
		info, err := ks.Info(strings.TrimSuffix(e.Name(), keyExt))
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the key stored under name.
func (ks *Keystore) Delete(name string) error {
	if err := os.Remove(ks.path(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrKeyNotFound, name)
		}
		return err
	}
	log.Keystore.Debug().Str("name", name).Msg("Key deleted")
	return nil
}

func (ks *Keystore) read(name string) (*keyFile, error) {
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	data, err := os.ReadFile(ks.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, name)
		}
		return nil, fmt.Errorf("read key: %w", err)
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key %s: %w", name, err)
	}
	if kf.Version != 1 {
		return nil, fmt.Errorf("unsupported key file version: %d", kf.Version)
	}
	return &kf, nil
}

func writeKeyFile(path string, kf *keyFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write key: %w", err)
	}
	return nil
}

func (kf *keyFile) info(name string) KeyInfo {
	return KeyInfo{
		Name:      name,
		Address:   kf.Address,
		PubKey:    kf.PubKey,
		Path:      kf.Path.String(),
		CreatedAt: kf.CreatedAt,
	}
}

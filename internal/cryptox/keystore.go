package cryptox

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/tjuecard/internal/common"
)

// KeySize is the length of the local data key (AES-256).
const KeySize = 32

// KeyStore manages the single local data key. The key lives base64-encoded
// in its own file, separate from the JSON config it protects.
type KeyStore struct {
	path string
}

func NewKeyStore(path string) *KeyStore {
	return &KeyStore{path: path}
}

// Path returns the key file location.
func (k *KeyStore) Path() string {
	return k.path
}

// LoadKey reads the existing key. It never creates one: a missing key on the
// decrypt path means every stored secret is already lost, and a fresh key
// would hide that.
func (k *KeyStore) LoadKey() ([]byte, error) {
	data, err := os.ReadFile(k.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrCryptoKeyNotFound, k.path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrCryptoKeyNotFound, k.path, err)
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", common.ErrCryptoKeyNotFound, k.path, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: %s holds %d bytes, want %d", common.ErrCryptoKeyNotFound, k.path, len(key), KeySize)
	}
	return key, nil
}

// GetOrCreateKey returns the existing key or generates and writes a new one.
// Concurrent first runs are not synchronised; key creation happens once.
func (k *KeyStore) GetOrCreateKey() ([]byte, error) {
	if _, err := os.Stat(k.path); err == nil {
		return k.LoadKey()
	}

	key := common.GenerateRandByteArray(KeySize)
	if err := k.writeKey(key); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCryptoKeyUnavailable, err)
	}
	return key, nil
}

// writeKey creates the key file with owner-only permissions. O_EXCL keeps an
// existing key from being clobbered if another process won the race.
func (k *KeyStore) writeKey(key []byte) error {
	if dir := filepath.Dir(k.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(k.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(base64.StdEncoding.EncodeToString(key)); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// mode bits from OpenFile are masked by umask; windows ignores this
	_ = os.Chmod(k.path, 0o600)
	return nil
}

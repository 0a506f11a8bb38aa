// Package cryptox protects the portal password and the mail auth code at rest.
//
// Secrets are sealed with AES-256-GCM under a random local data key kept in
// a separate file (see KeyStore). Each EncryptedSecret carries its own
// 12-byte nonce plus algorithm and key identifiers, so the JSON config never
// holds key material.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/tjuecard/internal/common"
)

const (
	// SecretVersion is the current EncryptedSecret layout.
	SecretVersion = 1
	// Algorithm is the only supported cipher tag.
	Algorithm = "A256GCM"
	// KeyID names the local data key.
	KeyID = "local-1"
	// NonceSize is the GCM nonce length in bytes.
	NonceSize = 12
)

// EncryptedSecret is the JSON object stored in place of a plaintext field.
type EncryptedSecret struct {
	Version    int    `json:"v"`
	Algorithm  string `json:"alg"`
	KeyID      string `json:"kid"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ct"`
}

// Store seals and opens secrets with the key held by a KeyStore.
type Store struct {
	keys *KeyStore
}

func NewStore(keys *KeyStore) *Store {
	return &Store{keys: keys}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt seals plaintext under the data key, creating the key on first use.
func (s *Store) Encrypt(plaintext []byte) (*EncryptedSecret, error) {
	key, err := s.keys.GetOrCreateKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCryptoKeyUnavailable, err)
	}

	nonce := common.GenerateRandByteArray(NonceSize)
	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	return &EncryptedSecret{
		Version:    SecretVersion,
		Algorithm:  Algorithm,
		KeyID:      KeyID,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
	}, nil
}

// EncryptString is Encrypt for string values.
func (s *Store) EncryptString(plaintext string) (*EncryptedSecret, error) {
	return s.Encrypt([]byte(plaintext))
}

// Decrypt opens secret. The caller owns the returned slice and should wipe
// it with common.WipeByteArray after use.
//
// Errors:
//   - common.ErrCryptoAlgorithmMismatch if the stored tag is not Algorithm;
//   - common.ErrCryptoKeyNotFound if the key file is missing or malformed;
//   - common.ErrCryptoAuthFailure on any tampering, corruption or wrong key.
func (s *Store) Decrypt(secret *EncryptedSecret) ([]byte, error) {
	if secret == nil {
		return nil, fmt.Errorf("%w: empty secret", common.ErrCryptoAuthFailure)
	}
	if secret.Algorithm != Algorithm {
		return nil, fmt.Errorf("%w: %q", common.ErrCryptoAlgorithmMismatch, secret.Algorithm)
	}

	key, err := s.keys.LoadKey()
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	nonce, err := base64.StdEncoding.DecodeString(secret.Nonce)
	if err != nil || len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: bad nonce", common.ErrCryptoAuthFailure)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(secret.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: bad ciphertext encoding", common.ErrCryptoAuthFailure)
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCryptoKeyNotFound, err)
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCryptoAuthFailure, err)
	}
	return plaintext, nil
}

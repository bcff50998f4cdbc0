// Package cryptox implements the sealed-blob format used by the optional
// encrypted-at-rest document store: argon2id key derivation plus AES-GCM
// with the nonce prepended to the ciphertext.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/dmitrijs2005/sketchsync/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of the key-derivation salt the store persists.
const SaltSize = 16

const nonceSize = 12

var ErrMalformedBlob = errors.New("malformed sealed blob")

// DeriveKey derives a 32-byte AES key from a passphrase and salt using
// argon2id. Same passphrase and salt always yield the same key.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)
}

// Seal encrypts plaintext with AES-GCM under key and returns
// nonce || ciphertext. A fresh random nonce is generated per call.
func Seal(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(nonceSize)
	sealed := aesgcm.Seal(nonce, nonce, plaintext, nil)
	return sealed, nil
}

// Open decrypts a blob produced by Seal. It fails on truncated input, a
// wrong key, or tampered ciphertext.
func Open(sealed, key []byte) ([]byte, error) {
	if len(sealed) < nonceSize {
		return nil, ErrMalformedBlob
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	return aesgcm.Open(nil, nonce, ciphertext, nil)
}

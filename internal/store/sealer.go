package store

import "github.com/dmitrijs2005/sketchsync/internal/cryptox"

// sealer encrypts blobs at rest with a key derived from the configured
// passphrase. A nil sealer passes data through unchanged.
type sealer struct {
	key []byte
}

func newSealer(passphrase string, salt []byte) *sealer {
	return &sealer{key: cryptox.DeriveKey([]byte(passphrase), salt)}
}

func (s *sealer) seal(b []byte) ([]byte, error) {
	if s == nil || b == nil {
		return b, nil
	}
	return cryptox.Seal(b, s.key)
}

func (s *sealer) open(b []byte) ([]byte, error) {
	if s == nil || b == nil {
		return b, nil
	}
	return cryptox.Open(b, s.key)
}

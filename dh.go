package ratchet

import (
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
)

// generateDH creates a fresh, clamped X25519 key pair, drawing entropy
// from r.
func generateDH(r io.Reader) (PrivKey32, PubKey32, error) {
	var priv PrivKey32
	if _, err := io.ReadFull(r, priv[:]); err != nil {
		return PrivKey32{}, PubKey32{}, fmt.Errorf("ratchet: generate dh key: %w", err)
	}
	clamp(&priv)

	pubBytes, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return PrivKey32{}, PubKey32{}, fmt.Errorf("ratchet: derive dh public key: %w", err)
	}
	var pub PubKey32
	copy(pub[:], pubBytes)
	return priv, pub, nil
}

// clamp applies RFC 7748 clamping to a 32-byte X25519 scalar in place.
func clamp(k *PrivKey32) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}

// dh performs a Curve25519 Diffie-Hellman computation, rejecting the
// identity and documented low-order public keys (spec.md §4.5 step 3).
func dh(priv PrivKey32, pub PubKey32) ([32]byte, error) {
	if isLowOrder(pub) {
		return [32]byte{}, ErrInvalidPublicKey
	}
	secret, err := curve25519.X25519(priv[:], pub[:])
	if err != nil {
		return [32]byte{}, fmt.Errorf("%w: %v", ErrCryptoError, err)
	}
	var out [32]byte
	copy(out[:], secret)
	return out, nil
}

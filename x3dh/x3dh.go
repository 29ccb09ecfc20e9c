// Package x3dh derives the two header-encryption keys a session needs
// from an X3DH shared secret. It deliberately stops at that boundary:
// running the X3DH handshake itself (identity keys, signed pre-keys,
// one-time pre-keys, bundle verification) is out of scope for this
// module (spec.md Non-goals); callers bring their own X3DH
// implementation and hand this package only the resulting 32-byte
// shared secret.
package x3dh

import (
	"crypto/sha256"

	"golang.org/x/crypto/hkdf"
)

// salt domain-separates this module's header-key derivation from any
// other use of the underlying X3DH shared secret.
var salt = []byte("X3DH-DR-v1-2025-05-20-----------")

var (
	infoSending   = []byte("header-encrypt-sending")
	infoReceiving = []byte("header-encrypt-receiving")
)

// HeaderKeys holds the pair of header-encryption keys derived from one
// X3DH shared secret. Both the initiator and the responder derive this
// same shared secret and so compute identical HeaderKeys; ratchet.InitSender
// and ratchet.InitReceiver each take Sending as their sharedHKA argument
// and Receiving as their sharedNHKB argument, which is what lets the
// initiator's first message (encrypted under its own current header
// key) be decryptable under the responder's next-receiving header key.
type HeaderKeys struct {
	Sending   [32]byte
	Receiving [32]byte
}

// DeriveHeaderKeys expands sharedSecret into the sending and receiving
// header-encryption keys a ratchet.InitSender/InitReceiver call needs.
// Both sides of a handshake call this with the same sharedSecret and
// get the same result; role assignment happens at the ratchet.InitSender
// / ratchet.InitReceiver call, not here.
func DeriveHeaderKeys(sharedSecret [32]byte) (HeaderKeys, error) {
	var keys HeaderKeys

	sendR := hkdf.New(sha256.New, sharedSecret[:], salt, infoSending)
	if _, err := sendR.Read(keys.Sending[:]); err != nil {
		return HeaderKeys{}, err
	}

	recvR := hkdf.New(sha256.New, sharedSecret[:], salt, infoReceiving)
	if _, err := recvR.Read(keys.Receiving[:]); err != nil {
		return HeaderKeys{}, err
	}

	return keys, nil
}

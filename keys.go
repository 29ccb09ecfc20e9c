package ratchet

import (
	"crypto/subtle"
	"runtime"
)

// Key32 is an opaque 32-byte secret key. Its zero value is not a valid
// key; Key32 values are produced only by key derivation or generation.
type Key32 [32]byte

// PubKey32 is a 32-byte X25519 public key.
type PubKey32 [32]byte

// PrivKey32 is a clamped X25519 scalar.
type PrivKey32 [32]byte

// Nonce16 is a 16-byte AEAD nonce, built from an 8-byte random prefix
// and an 8-byte big-endian counter (see nonce.go). Both the header and
// payload AEADs use this size.
type Nonce16 [16]byte

// Counter32 is a wrapping 32-bit message counter. Wrapping is tracked
// explicitly by the state machine; see Encrypt/Decrypt.
type Counter32 = uint32

// wipe overwrites b with zeros in a way the compiler cannot elide, and
// keeps b alive past the copy so the overwrite is observable even if
// the caller never reads b again.
//
//go:noinline
func wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	zero := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zero)
	runtime.KeepAlive(b)
}

// Scrub zeroes k in place.
func (k *Key32) Scrub() {
	if k == nil {
		return
	}
	wipe(k[:])
}

// Scrub zeroes k in place.
func (k *PrivKey32) Scrub() {
	if k == nil {
		return
	}
	wipe(k[:])
}

// equalKey32 compares two Key32 values in constant time.
func equalKey32(a, b Key32) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// lowOrderPoints is the documented set of X25519 public-key values that
// produce a small-order (or identity) shared secret regardless of the
// private scalar used against them. Rejecting only the all-zero point
// (as some source implementations do) is insufficient; spec.md's design
// notes call this out explicitly and require the full set.
//
// Values are taken from the standard Curve25519 low-order point catalog
// (orders 1, 2, 4, and 8).
var lowOrderPoints = [][32]byte{
	// Order 1 (identity).
	{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	// Order 1.
	{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	// Order 8, twist point.
	{0xe0, 0xeb, 0x7a, 0x7c, 0x3b, 0x41, 0xb8, 0xae, 0x16, 0x56, 0xe3, 0xfa, 0xf1, 0x9f, 0xc4, 0x6a,
		0xda, 0x09, 0x8d, 0xeb, 0x9c, 0x32, 0xb1, 0xfd, 0x86, 0x62, 0x05, 0x16, 0x5f, 0x49, 0xb8, 0x00},
	// Order 4.
	{0x5f, 0x9c, 0x95, 0xbc, 0xa3, 0x50, 0x8c, 0x24, 0xb1, 0xd0, 0xb1, 0x55, 0x9c, 0x83, 0xef, 0x5b,
		0x04, 0x44, 0x5c, 0xc4, 0x58, 0x1c, 0x8e, 0x86, 0xd8, 0x22, 0x4e, 0xdd, 0xd0, 0x9f, 0x11, 0x57},
	// Order 8.
	{0xec, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f},
	// Order 2.
	{0xed, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f},
	// Order 4, twist point.
	{0xee, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
	// Order 8, twist point.
	{0xcd, 0xeb, 0x7a, 0x7c, 0x3b, 0x41, 0xb8, 0xae, 0x16, 0x56, 0xe3, 0xfa, 0xf1, 0x9f, 0xc4, 0x6a,
		0xda, 0x09, 0x8d, 0xeb, 0x9c, 0x32, 0xb1, 0xfd, 0x86, 0x62, 0x05, 0x16, 0x5f, 0x49, 0xb8, 0x80},
}

// isLowOrder reports whether pub is the identity point or one of the
// documented low-order X25519 points, in constant time.
func isLowOrder(pub PubKey32) bool {
	var found int
	for _, lo := range lowOrderPoints {
		found |= subtle.ConstantTimeCompare(pub[:], lo[:])
	}
	return found == 1
}

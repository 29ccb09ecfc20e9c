package ratchet

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// rootKDFInfo is the fixed HKDF info string for kdfRK. Changing it is a
// protocol break; both peers must use exactly this value (spec.md §6).
var rootKDFInfo = []byte("DR-RootHE")

const (
	chainKDFTagChain = 0x01
	chainKDFTagMsg   = 0x02
)

// kdfRK applies a KDF keyed by the current root key to a Diffie-Hellman
// output, returning a new root key, a new chain key, and a new
// next-header key (C1).
//
// HKDF-SHA-256 with salt=rk, ikm=dhOut, info="DR-RootHE", expanded to 96
// bytes: rk' ‖ ck ‖ nhk.
func kdfRK(rk Key32, dhOut [32]byte) (newRK, ck, nhk Key32) {
	r := hkdf.New(sha256.New, dhOut[:], rk[:], rootKDFInfo)
	var buf [96]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		// HKDF expansion of a bounded length cannot fail; treat as a
		// fatal crypto error per spec.md §4.1.
		panic("ratchet: kdfRK: hkdf expand failed: " + err.Error())
	}
	copy(newRK[:], buf[0:32])
	copy(ck[:], buf[32:64])
	copy(nhk[:], buf[64:96])
	wipe(buf[:])
	return newRK, ck, nhk
}

// kdfCK advances a chain key one step, returning the next chain key and
// the message key for this step (C1).
//
// ck' = HMAC-SHA-256(ck, 0x01); mk = HMAC-SHA-256(ck, 0x02).
func kdfCK(ck Key32) (newCK, mk Key32) {
	h := hmac.New(sha256.New, ck[:])
	h.Write([]byte{chainKDFTagChain})
	copy(newCK[:], h.Sum(nil))

	h.Reset()
	h.Write([]byte{chainKDFTagMsg})
	copy(mk[:], h.Sum(nil))
	return newCK, mk
}

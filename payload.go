package ratchet

import (
	"github.com/codahale/thyrse/schemes/basic/siv"
)

// payloadAEADDomain domain-separates the payload AEAD from the header
// AEAD (see header.go), so the two uses of siv.New never collide even
// when (improbably) keyed by the same bytes.
const payloadAEADDomain = "heratchet-payload-siv-v1"

func payloadAEAD(mk Key32) interface {
	Seal(dst, nonce, plaintext, ad []byte) []byte
	Open(dst, nonce, ciphertext, ad []byte) ([]byte, error)
} {
	return siv.New(payloadAEADDomain, mk[:], 16)
}

// sealPayload encrypts plaintext under the message key mk with a nonce
// drawn from seq, using ad as associated data (the caller's session
// associated data concatenated with the encrypted header, per
// combinedAD). The returned blob is the 16-byte nonce followed by the
// AES-SIV ciphertext, matching the wire layout hencrypt/hdecrypt use for
// headers.
func sealPayload(mk Key32, seq *nonceSeq, plaintext, ad []byte) []byte {
	n := seq.next()
	aead := payloadAEAD(mk)
	ct := aead.Seal(nil, n[:], plaintext, ad)
	out := make([]byte, 0, len(n)+len(ct))
	out = append(out, n[:]...)
	out = append(out, ct...)
	return out
}

// openPayload decrypts enc (nonce ‖ ciphertext, as produced by
// sealPayload) under the message key mk with the given associated data.
func openPayload(mk Key32, enc, ad []byte) ([]byte, error) {
	if len(enc) < 16 {
		return nil, ErrCryptoError
	}
	nonce, ct := enc[:16], enc[16:]
	aead := payloadAEAD(mk)
	plain, err := aead.Open(nil, nonce, ct, ad)
	if err != nil {
		return nil, ErrCryptoError
	}
	return plain, nil
}

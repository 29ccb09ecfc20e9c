package ratchet

import (
	"fmt"

	"github.com/codahale/thyrse/schemes/basic/siv"
	"github.com/fxamacker/cbor/v2"
)

// headerAEADDomain domain-separates the nonce-misuse-resistant AEAD used
// to encrypt headers from any other use of the thyrse protocol family in
// this module.
const headerAEADDomain = "heratchet-header-siv-v1"

// Header is the plaintext message header: the sender's current ephemeral
// public key, the length of the sender's previous sending chain, and the
// message's index in the current sending chain (C3, spec.md §3).
//
// A Header is never transmitted in the clear; it is always the plaintext
// input or output of hencrypt/hdecrypt below.
type Header struct {
	_  struct{}  `cbor:",toarray"`
	DH PubKey32
	PN Counter32
	N  Counter32
}

// encodeHeader serializes h as a deterministic CBOR 3-tuple: the toarray
// tag on Header encodes the fields as an array in declaration order, so
// re-encoding never reorders fields (spec.md §3/§6).
func encodeHeader(h Header) ([]byte, error) {
	buf, err := cbor.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("ratchet: encode header: %w", err)
	}
	return buf, nil
}

func decodeHeader(data []byte) (Header, error) {
	var h Header
	if err := cbor.Unmarshal(data, &h); err != nil {
		return Header{}, ErrHeaderParse
	}
	return h, nil
}

// headerAEAD builds the nonce-misuse-resistant AEAD keyed by hk, used to
// encrypt and decrypt headers. Any AEAD with this property is admissible
// per spec.md §4.3; this module uses thyrse's SIV construction as its
// "AES-SIV" collaborator.
func headerAEAD(hk Key32) interface {
	Seal(dst, nonce, plaintext, ad []byte) []byte
	Open(dst, nonce, ciphertext, ad []byte) ([]byte, error)
} {
	return siv.New(headerAEADDomain, hk[:], 16)
}

// hencrypt serializes h deterministically, encrypts it under hk with a
// fresh nonce drawn from seq, and returns nonce ‖ ciphertext (C3).
func hencrypt(hk Key32, seq *nonceSeq, h Header) ([]byte, error) {
	plain, err := encodeHeader(h)
	if err != nil {
		return nil, err
	}
	n := seq.next()
	aead := headerAEAD(hk)
	ct := aead.Seal(nil, n[:], plain, nil)
	out := make([]byte, 0, len(n)+len(ct))
	out = append(out, n[:]...)
	out = append(out, ct...)
	return out, nil
}

// hdecrypt splits enc into its nonce and ciphertext, decrypts under hk,
// and deserializes the resulting plaintext header (C3).
func hdecrypt(hk Key32, enc []byte) (Header, error) {
	if len(enc) < 16 {
		return Header{}, ErrHeaderParse
	}
	nonce, ct := enc[:16], enc[16:]
	aead := headerAEAD(hk)
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return Header{}, ErrHeaderParse
	}
	defer wipe(plain)
	return decodeHeader(plain)
}

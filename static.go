package ratchet

// EncryptStatic encrypts plaintext under the current sending chain
// without advancing any state (C7, spec.md §4.7). Repeated calls with
// the same state produce independent ciphertexts (a fresh nonce each
// time) but reuse the same message key and chain position, so this is
// intended for drafting or multi-recipient fan-out of one logical
// message rather than ordinary per-message encryption.
func (s *RatchetState) EncryptStatic(plaintext, ad []byte) (Message, error) {
	if !s.hasCKS {
		return Message{}, ErrMissingSendingChain
	}
	if !s.hasHKS {
		return Message{}, ErrMissingHeaderKey
	}

	_, mk := kdfCK(s.cks)
	defer mk.Scrub()

	h := Header{DH: s.dhsPub, PN: s.pn, N: s.ns}

	hdrSeq, err := newNonceSeq(s.cfg.Rand)
	if err != nil {
		return Message{}, err
	}
	encHeader, err := hencrypt(s.hks, &hdrSeq, h)
	if err != nil {
		return Message{}, err
	}

	msgSeq, err := newNonceSeq(s.cfg.Rand)
	if err != nil {
		return Message{}, err
	}
	ct := sealPayload(mk, &msgSeq, plaintext, combinedAD(ad, encHeader))

	return Message{EncHeader: encHeader, Ciphertext: ct}, nil
}

// DecryptStatic decrypts msg as a peek: it does not advance nr, does not
// perform a DH ratchet step, and does not consult or populate the
// skipped-key store (C7, spec.md §4.7). It only succeeds against the
// current receiving chain at exactly its current position; out-of-order
// or post-DH-step messages are rejected rather than accommodated, since
// accommodating them would require the very state mutation this
// operation exists to avoid.
func (s *RatchetState) DecryptStatic(msg Message, ad []byte) ([]byte, error) {
	if !s.hasHKR || !s.hasCKR {
		return nil, ErrMissingReceivingChain
	}

	h, err := hdecrypt(s.hkr, msg.EncHeader)
	if err != nil {
		return nil, ErrHeaderParse
	}
	if h.N != s.nr || !equalKey32(Key32(h.DH), Key32(s.dhrPub)) {
		return nil, ErrDecryptionFailed
	}

	_, mk := kdfCK(s.ckr)
	defer mk.Scrub()

	return openPayload(mk, msg.Ciphertext, combinedAD(ad, msg.EncHeader))
}

// DecryptOwnStatic decrypts a message this side produced with
// EncryptStatic, verifying it against the sending chain instead of the
// receiving chain (C7, spec.md §4.7). This supports a sender confirming
// or re-displaying its own drafted output without needing a receiving
// chain at all.
func (s *RatchetState) DecryptOwnStatic(msg Message, ad []byte) ([]byte, error) {
	if !s.hasHKS || !s.hasCKS {
		return nil, ErrMissingSendingChain
	}

	h, err := hdecrypt(s.hks, msg.EncHeader)
	if err != nil {
		return nil, ErrHeaderParse
	}
	if h.N != s.ns || !equalKey32(Key32(h.DH), Key32(s.dhsPub)) {
		return nil, ErrDecryptionFailed
	}

	_, mk := kdfCK(s.cks)
	defer mk.Scrub()

	return openPayload(mk, msg.Ciphertext, combinedAD(ad, msg.EncHeader))
}

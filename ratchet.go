package ratchet

import (
	"fmt"
	"math"
)

// Message is the wire form of one ratcheted message: an encrypted
// header and the payload ciphertext, the latter carrying its own
// 16-byte nonce prefix (C3/C6, spec.md §3/§4.6).
type Message struct {
	EncHeader  []byte
	Ciphertext []byte
}

// Encrypt advances the sending chain by one step and encrypts plaintext
// (C6, spec.md §4.6.2 ratchet_encrypt). ad is associated data bound into
// the payload AEAD (typically the caller's session associated data, see
// session.go).
func (s *RatchetState) Encrypt(plaintext, ad []byte) (Message, error) {
	if !s.hasCKS {
		return Message{}, ErrMissingSendingChain
	}
	if !s.hasHKS {
		return Message{}, ErrMissingHeaderKey
	}
	if s.ns == math.MaxUint32 {
		return Message{}, ErrChainExhausted
	}

	newCK, mk := kdfCK(s.cks)

	h := Header{DH: s.dhsPub, PN: s.pn, N: s.ns}

	encHeader, err := hencrypt(s.hks, &s.nonceHdr, h)
	if err != nil {
		mk.Scrub()
		newCK.Scrub()
		return Message{}, err
	}

	s.cks.Scrub()
	s.cks = newCK
	s.ns++

	ct := sealPayload(mk, &s.nonceMsg, plaintext, combinedAD(ad, encHeader))
	mk.Scrub()

	return Message{EncHeader: encHeader, Ciphertext: ct}, nil
}

// Decrypt attempts to decrypt msg against the skipped-key store, the
// current receiving chain, or the next (post-DH-step) receiving chain, in
// that order (C6, spec.md §4.6.2 ratchet_decrypt). On any failure the
// receiver's state is left exactly as it was before the call; a clone is
// staged and only adopted on success (spec.md §5 transactional
// semantics).
func (s *RatchetState) Decrypt(msg Message, ad []byte) ([]byte, error) {
	staged := s.clone()

	if mk, ok := staged.trySkipped(msg.EncHeader); ok {
		plain, err := openPayload(mk, msg.Ciphertext, combinedAD(ad, msg.EncHeader))
		mk.Scrub()
		if err != nil {
			return nil, err
		}
		s.adopt(staged)
		return plain, nil
	}

	h, isNext, err := staged.decryptHeader(msg.EncHeader)
	if err != nil {
		return nil, err
	}

	if isNext {
		if err := staged.skipMessageKeys(h.PN); err != nil {
			return nil, err
		}
		if err := staged.dhRatchetStep(h.DH); err != nil {
			return nil, err
		}
	}

	if err := staged.skipMessageKeys(h.N); err != nil {
		return nil, err
	}

	if !staged.hasCKR {
		return nil, ErrMissingReceivingChain
	}
	if h.N == math.MaxUint32 {
		return nil, ErrChainExhausted
	}
	newCK, mk := kdfCK(staged.ckr)
	staged.ckr.Scrub()
	staged.ckr = newCK
	staged.nr = h.N + 1

	plain, err := openPayload(mk, msg.Ciphertext, combinedAD(ad, msg.EncHeader))
	mk.Scrub()
	if err != nil {
		return nil, err
	}

	s.adopt(staged)
	return plain, nil
}

// decryptHeader tries the current receiving header key, then the next
// one, returning which chain succeeded.
func (s *RatchetState) decryptHeader(enc []byte) (h Header, isNext bool, err error) {
	if s.hasHKR {
		if h, err := hdecrypt(s.hkr, enc); err == nil {
			return h, false, nil
		}
	}
	h, err = hdecrypt(s.nhkr, enc)
	if err != nil {
		return Header{}, false, ErrHeaderParse
	}
	return h, true, nil
}

// trySkipped looks up a skipped message key by attempting to decrypt enc
// under every header key currently held (hkr and nhkr), since skipped
// entries are indexed by the header key active when they were derived.
func (s *RatchetState) trySkipped(enc []byte) (Key32, bool) {
	if s.hasHKR {
		if h, err := hdecrypt(s.hkr, enc); err == nil {
			if mk, ok := s.skipped.take(s.hkr, h.N); ok {
				return mk, true
			}
		}
	}
	if h, err := hdecrypt(s.nhkr, enc); err == nil {
		if mk, ok := s.skipped.take(s.nhkr, h.N); ok {
			return mk, true
		}
	}
	return Key32{}, false
}

// skipMessageKeys derives and stores every message key between the
// current receiving chain position and until, enforcing the per-catch-up
// and global skip budgets (I3, spec.md §4.4).
func (s *RatchetState) skipMessageKeys(until Counter32) error {
	if !s.hasCKR {
		if until == 0 {
			return nil
		}
		return ErrMissingReceivingChain
	}
	if int(until)-int(s.nr) > s.cfg.MaxSkipPerChain {
		return ErrMaxSkipExceeded
	}
	for s.nr < until {
		newCK, mk := kdfCK(s.ckr)
		s.ckr.Scrub()
		s.ckr = newCK
		if err := s.skipped.insert(s.hkr, s.nr, mk); err != nil {
			mk.Scrub()
			return err
		}
		s.nr++
	}
	return nil
}

// combinedAD concatenates the caller-supplied associated data with the
// encrypted header, so the payload AEAD is bound to the exact header
// ciphertext it was sent alongside (spec.md §4.6.2).
func combinedAD(ad, encHeader []byte) []byte {
	out := make([]byte, 0, len(ad)+len(encHeader))
	out = append(out, ad...)
	out = append(out, encHeader...)
	return out
}

// String renders a Message's sizes for debugging without leaking key
// material (headers and ciphertexts carry no plaintext).
func (m Message) String() string {
	return fmt.Sprintf("ratchet.Message{header=%dB ciphertext=%dB}", len(m.EncHeader), len(m.Ciphertext))
}

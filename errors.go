package ratchet

import "errors"

// Error kinds, one per row of the core's error taxonomy. Every mutating
// operation that fails leaves state unchanged — see state.go and
// ratchet.go for the transactional-commit discipline this relies on —
// and returns one of these (optionally wrapped), except that a failed
// read from the configured random source is returned as that read error.
var (
	// ErrMissingSendingChain is returned by Encrypt when no sending
	// chain has been established yet.
	ErrMissingSendingChain = errors.New("ratchet: encrypt called before sending chain established")

	// ErrMissingReceivingChain is returned by Decrypt when it reaches
	// the chain-advance step with no receiving chain key.
	ErrMissingReceivingChain = errors.New("ratchet: decrypt reached chain step with no receiving chain")

	// ErrMissingHeaderKey is returned when a required header key
	// (sending, receiving, or next-receiving) is absent.
	ErrMissingHeaderKey = errors.New("ratchet: required header key is absent")

	// ErrHeaderParse is returned when an encrypted header fails to
	// decrypt under any candidate header key, or fails to deserialize.
	ErrHeaderParse = errors.New("ratchet: header parse failed")

	// ErrCryptoError wraps an AEAD, HKDF, or HMAC primitive failure.
	ErrCryptoError = errors.New("ratchet: cryptographic primitive failed")

	// ErrInvalidPublicKey is returned when a peer's new DH public key
	// is the identity point or a documented low-order point.
	ErrInvalidPublicKey = errors.New("ratchet: peer public key is identity or low-order")

	// ErrMaxSkipExceeded is returned when a catch-up would require
	// deriving more keys than the per-chain budget allows, or when the
	// global skipped-key store is full.
	ErrMaxSkipExceeded = errors.New("ratchet: skip budget exceeded")

	// ErrUnsupportedVersion is returned when an envelope carries a
	// version other than the one this package produces/consumes.
	ErrUnsupportedVersion = errors.New("ratchet: unsupported envelope version")

	// ErrInvalidState is returned for session-level misuse, such as
	// decrypting an Initial envelope on an already-established session.
	ErrInvalidState = errors.New("ratchet: invalid session state")

	// ErrChainExhausted is returned when a chain's message counter has
	// reached its maximum value without an intervening DH ratchet step
	// (spec design note: counter overflow is treated as chain
	// end-of-life, not wraparound).
	ErrChainExhausted = errors.New("ratchet: chain counter exhausted, requires a DH step")

	// ErrDecryptionFailed is the single error Session.Decrypt surfaces
	// for any core failure other than ErrUnsupportedVersion and
	// ErrInvalidState, so that callers cannot distinguish "bad MAC"
	// from "bad header" from "skip ceiling" at the session boundary.
	ErrDecryptionFailed = errors.New("ratchet: decryption failed")
)

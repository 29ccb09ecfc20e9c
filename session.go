package ratchet

import (
	"bytes"
	"crypto/sha256"
	"fmt"
)

// protocolVersion is the only Envelope version this module emits or
// accepts (spec.md §4.8). A future header-layout change would bump this
// and add a case to Session.Decrypt rather than silently reinterpreting
// old envelopes under new rules.
const protocolVersion = 1

// EnvelopeKind distinguishes the first message of a session, which
// still carries the X3DH material the receiver needs to call
// InitReceiver, from every later message (spec.md §4.8).
type EnvelopeKind uint8

const (
	// EnvelopeInitial carries the sender's identity and ephemeral keys
	// alongside the first ratcheted message.
	EnvelopeInitial EnvelopeKind = iota
	// EnvelopeStandard carries only the ratcheted message.
	EnvelopeStandard
)

// Envelope is the version-tagged wire wrapper around a Message
// (spec.md §4.8). InitiatorIdentity and InitiatorEphemeral are set only
// on EnvelopeInitial envelopes; Standard envelopes leave them zero.
type Envelope struct {
	Version            uint8
	Kind               EnvelopeKind
	InitiatorIdentity  PubKey32
	InitiatorEphemeral PubKey32
	Msg                Message
}

// Session pairs a RatchetState with the two parties' long-term identity
// keys, fixing the associated data bound into every message so the
// identities can never be swapped or dropped by a network attacker
// (spec.md §4.8, grounded on original_source session.rs's associated
// data construction).
type Session struct {
	state       *RatchetState
	selfID      PubKey32
	peerID      PubKey32
	ad          []byte
	established bool
}

// NewSession wraps state with the associated-data binding derived from
// selfID and peerID. The two identity keys are ordered lexicographically
// before concatenation so both participants compute identical
// associated data regardless of which side is "self" locally.
func NewSession(state *RatchetState, selfID, peerID PubKey32) *Session {
	return &Session{
		state:  state,
		selfID: selfID,
		peerID: peerID,
		ad:     sessionAD(selfID, peerID),
	}
}

func sessionAD(a, b PubKey32) []byte {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return append(append([]byte{}, a[:]...), b[:]...)
	}
	return append(append([]byte{}, b[:]...), a[:]...)
}

// SessionID returns a deterministic identifier for the session,
// SHA-256("session-id" ‖ sk) where sk is the X3DH shared secret passed
// to InitSender/InitReceiver. A RatchetState does not keep sk (the
// sender's root key is already derived from it at initialization, and
// every DH ratchet step replaces the root key), so the ID is computed
// from the handshake output, not from the state (spec.md §4.8).
func SessionID(sk Key32) [32]byte {
	h := sha256.New()
	h.Write([]byte("session-id"))
	h.Write(sk[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Encrypt ratchets and encrypts plaintext, wrapping the result in an
// Envelope. The first call on a freshly constructed initiator Session
// produces an EnvelopeInitial carrying selfID and the sender's current
// ephemeral public key; every later call produces an EnvelopeStandard.
func (sess *Session) Encrypt(plaintext []byte) (Envelope, error) {
	msg, err := sess.state.Encrypt(plaintext, sess.ad)
	if err != nil {
		return Envelope{}, err
	}

	if !sess.established {
		sess.established = true
		return Envelope{
			Version:            protocolVersion,
			Kind:               EnvelopeInitial,
			InitiatorIdentity:  sess.selfID,
			InitiatorEphemeral: sess.state.dhsPub,
			Msg:                msg,
		}, nil
	}
	return Envelope{Version: protocolVersion, Kind: EnvelopeStandard, Msg: msg}, nil
}

// Decrypt unwraps env and decrypts its message. A version mismatch is
// reported as ErrUnsupportedVersion; an EnvelopeInitial arriving on a
// session that has already processed a message is rejected as
// ErrInvalidState rather than attempted against the ratchet state, since
// a second Initial can only be a replay or a confused peer, not a
// legitimate re-handshake (spec.md §4.8). Any failure inside the ratchet
// layer itself (authentication failure, exhausted skip budget, missing
// chain) is folded into ErrDecryptionFailed so callers cannot
// distinguish "forged" from "this peer's state diverged" by error type
// alone (spec.md §7).
func (sess *Session) Decrypt(env Envelope) ([]byte, error) {
	if env.Version != protocolVersion {
		return nil, ErrUnsupportedVersion
	}
	if env.Kind == EnvelopeInitial && sess.established {
		return nil, ErrInvalidState
	}

	plain, err := sess.state.Decrypt(env.Msg, sess.ad)
	if err != nil {
		switch err {
		case ErrInvalidState, ErrUnsupportedVersion:
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
		}
	}
	sess.established = true
	return plain, nil
}

// State returns the underlying RatchetState, for callers that need to
// persist it via a Store between calls.
func (sess *Session) State() *RatchetState {
	return sess.state
}

// SelfIdentity returns the local identity public key this session was
// constructed with.
func (sess *Session) SelfIdentity() PubKey32 {
	return sess.selfID
}

// PeerIdentity returns the remote identity public key this session was
// constructed with.
func (sess *Session) PeerIdentity() PubKey32 {
	return sess.peerID
}

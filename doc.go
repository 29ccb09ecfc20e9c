// Package ratchet implements a header-encrypted Double Ratchet session
// core, the symmetric-key layer that sits on top of an X3DH-style
// asynchronous handshake.
//
// Overview
//
// The Double Ratchet Algorithm is comprised of two "ratchets" over three
// KDF chains. A ratchet is a construction where each step forward is
// constructed with a one-way function, making it impossible to recover
// previous keys (forward secrecy).
//
// KDF Chains
//
// A KDF chain is a construction where part of the output of the KDF is
// used to key the next invocation of the KDF, and the rest is used for
// some other purpose (deriving a message key, or a header key).
//
//              key
//               v
//            ┌─────┐
//    input > │ kdf │
//            └──┬──┘
//               ├─> output key
//               v
//              key
//
// A session keeps three chains: a root chain, a sending chain, and a
// receiving chain. A party's sending chain matches its peer's receiving
// chain and vice versa; the root chain is symmetric.
//
// Diffie-Hellman Ratchet
//
// Each party keeps an ephemeral X25519 key pair. Whenever a message is
// sent, the sender attaches its current public key to the message.
// Whenever the recipient observes a new peer public key, it performs a
// DH step: two new Diffie-Hellman computations feed the root chain,
// producing a fresh receiving chain key and a fresh sending chain key,
// and a new local ephemeral key pair is generated for the next step.
//
// Header Encryption
//
// Unlike a plain Double Ratchet, every message header (the sender's
// current public key, the previous chain length, and the message
// index) is itself encrypted under a rotating, nonce-misuse-resistant
// AEAD keyed by a header key that rotates alongside the DH ratchet.
// This hides the ratchet's cadence — and therefore the social graph and
// message-timing metadata it would otherwise leak — from anyone
// observing ciphertext on the wire.
//
// Skipped Messages
//
// Because delivery can reorder or drop messages, a party may receive a
// header whose index is ahead of what it expects. The intervening
// message keys are derived and stored (bounded by a configurable skip
// budget) so a late or reordered message can still be decrypted when it
// eventually arrives. Stored keys are looked up only under the current
// and next receiving header keys, so keys skipped in a receiving chain
// that a later DH step has replaced are not found.
//
// Notes
//
// This package does not implement the X3DH handshake that negotiates the
// initial shared secret and header keys; see the x3dh subpackage for the
// narrow boundary this package expects from that collaborator. It also
// does not implement transport, wire serialization beyond the envelope
// described in Session, or any notion of groups or multi-device sync.
//
// References
//
//    [signal]: https://signal.org/docs/specifications/doubleratchet/doubleratchet.pdf
//
package ratchet

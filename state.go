package ratchet

import (
	"crypto/rand"
	"io"
)

// Config tunes the skip budget and random source a RatchetState uses.
// The zero value is not valid; use DefaultConfig.
type Config struct {
	// MaxSkipPerChain bounds how many message keys a single catch-up
	// within one receiving chain may derive (spec.md I3). A Decrypt that
	// performs a DH step runs two catch-ups, one per chain, each bounded
	// separately.
	MaxSkipPerChain int
	// MaxSkipGlobal bounds the total number of skipped keys held at
	// once across the whole state (spec.md I3).
	MaxSkipGlobal int
	// Rand is the entropy source used for ephemeral key pairs and
	// nonce prefixes. Defaults to crypto/rand.Reader.
	Rand io.Reader
}

// DefaultConfig returns spec.md's recommended skip-budget values,
// 1000 per chain and 2000 globally, reading from crypto/rand.Reader.
func DefaultConfig() Config {
	return Config{
		MaxSkipPerChain: 1000,
		MaxSkipGlobal:   2000,
		Rand:            rand.Reader,
	}
}

// RatchetState is one direction-pair's full Double Ratchet state
// (spec.md §3 "Entity RatchetState"). All mutation goes through Encrypt
// and Decrypt; the static variants only read. Callers must serialize access to a
// single RatchetState themselves (spec.md §5: single-owner, no internal
// locking).
type RatchetState struct {
	cfg Config

	dhsPriv PrivKey32
	dhsPub  PubKey32
	dhrPub  PubKey32
	hasDHR  bool

	rk Key32

	cks    Key32
	hasCKS bool
	ckr    Key32
	hasCKR bool

	hks    Key32
	hasHKS bool
	hkr    Key32
	hasHKR bool
	nhks   Key32
	nhkr   Key32

	ns Counter32
	nr Counter32
	pn Counter32

	skipped *skippedStore

	nonceMsg nonceSeq
	nonceHdr nonceSeq
}

// InitSender initializes a RatchetState for the party that consumed an
// X3DH shared secret and the peer's ephemeral public key (spec.md
// §4.6.1 init_sender).
//
// sk is the X3DH shared secret. peerPub is the peer's ephemeral public
// key supplied by the handshake. sharedHKA is this side's initial
// sending header key; sharedNHKB is this side's initial next-receiving
// header key. Both are derived outside this package (see the x3dh
// subpackage).
func InitSender(cfg Config, sk Key32, peerPub PubKey32, sharedHKA, sharedNHKB Key32) (*RatchetState, error) {
	if isLowOrder(peerPub) {
		return nil, ErrInvalidPublicKey
	}

	priv, pub, err := generateDH(cfg.Rand)
	if err != nil {
		return nil, err
	}

	dhOut, err := dh(priv, peerPub)
	if err != nil {
		priv.Scrub()
		return nil, err
	}
	rk, cks, nhks := kdfRK(sk, dhOut)
	wipe(dhOut[:])

	nonceMsg, err := newNonceSeq(cfg.Rand)
	if err != nil {
		return nil, err
	}
	nonceHdr, err := newNonceSeq(cfg.Rand)
	if err != nil {
		return nil, err
	}

	return &RatchetState{
		cfg:      cfg,
		dhsPriv:  priv,
		dhsPub:   pub,
		dhrPub:   peerPub,
		hasDHR:   true,
		rk:       rk,
		cks:      cks,
		hasCKS:   true,
		hks:      sharedHKA,
		hasHKS:   true,
		nhkr:     sharedNHKB,
		skipped:  newSkippedStore(cfg.MaxSkipGlobal),
		nonceMsg: nonceMsg,
		nonceHdr: nonceHdr,
	}, nil
}

// InitReceiver initializes a RatchetState for the party that owns the
// ephemeral key pair the sender used for its first DH computation
// (spec.md §4.6.1 init_receiver).
//
// sk is the X3DH shared secret (the same value the sender consumed).
// ownPriv/ownPub is the key pair the sender already knows about (for
// example, the receiver's signed pre-key, per the handshake boundary).
// sharedHKA and sharedNHKB mirror the sender's initialization exactly.
func InitReceiver(cfg Config, sk Key32, ownPriv PrivKey32, ownPub PubKey32, sharedHKA, sharedNHKB Key32) (*RatchetState, error) {
	nonceMsg, err := newNonceSeq(cfg.Rand)
	if err != nil {
		return nil, err
	}
	nonceHdr, err := newNonceSeq(cfg.Rand)
	if err != nil {
		return nil, err
	}

	return &RatchetState{
		cfg:      cfg,
		dhsPriv:  ownPriv,
		dhsPub:   ownPub,
		rk:       sk,
		nhks:     sharedNHKB,
		nhkr:     sharedHKA,
		skipped:  newSkippedStore(cfg.MaxSkipGlobal),
		nonceMsg: nonceMsg,
		nonceHdr: nonceHdr,
	}, nil
}

// Snapshot is the exported, serializable form of a RatchetState, used by
// Store implementations to persist and restore a session across process
// restarts (spec.md §4.9, generalized from the teacher's Store.Save).
type Snapshot struct {
	DHsPriv PrivKey32
	DHsPub  PubKey32
	DHrPub  PubKey32
	HasDHR  bool

	RK Key32

	CKs    Key32
	HasCKS bool
	CKr    Key32
	HasCKR bool

	HKs    Key32
	HasHKS bool
	HKr    Key32
	HasHKR bool
	NHKs   Key32
	NHKr   Key32

	Ns, Nr, Pn Counter32

	Skipped []SkippedKey

	NoncePrefixMsg  [8]byte
	NonceCounterMsg uint64
	NoncePrefixHdr  [8]byte
	NonceCounterHdr uint64
}

// SkippedKey is one entry of a Snapshot's skipped-message-key table.
type SkippedKey struct {
	HK  Key32
	Idx Counter32
	MK  Key32
}

// Snapshot exports s's current state. The returned value shares no
// memory with s; mutating one does not affect the other.
func (s *RatchetState) Snapshot() Snapshot {
	snap := Snapshot{
		DHsPriv: s.dhsPriv,
		DHsPub:  s.dhsPub,
		DHrPub:  s.dhrPub,
		HasDHR:  s.hasDHR,
		RK:      s.rk,
		CKs:     s.cks,
		HasCKS:  s.hasCKS,
		CKr:     s.ckr,
		HasCKR:  s.hasCKR,
		HKs:     s.hks,
		HasHKS:  s.hasHKS,
		HKr:     s.hkr,
		HasHKR:  s.hasHKR,
		NHKs:    s.nhks,
		NHKr:    s.nhkr,
		Ns:      s.ns,
		Nr:      s.nr,
		Pn:      s.pn,

		NoncePrefixMsg:  s.nonceMsg.prefix,
		NonceCounterMsg: s.nonceMsg.counter,
		NoncePrefixHdr:  s.nonceHdr.prefix,
		NonceCounterHdr: s.nonceHdr.counter,
	}
	for _, e := range s.skipped.entries {
		snap.Skipped = append(snap.Skipped, SkippedKey{HK: e.hk, Idx: e.idx, MK: e.mk})
	}
	return snap
}

// RestoreSnapshot rebuilds a RatchetState from a previously exported
// Snapshot, using cfg for its skip budgets and random source going
// forward.
func RestoreSnapshot(cfg Config, snap Snapshot) *RatchetState {
	s := &RatchetState{
		cfg:     cfg,
		dhsPriv: snap.DHsPriv,
		dhsPub:  snap.DHsPub,
		dhrPub:  snap.DHrPub,
		hasDHR:  snap.HasDHR,
		rk:      snap.RK,
		cks:     snap.CKs,
		hasCKS:  snap.HasCKS,
		ckr:     snap.CKr,
		hasCKR:  snap.HasCKR,
		hks:     snap.HKs,
		hasHKS:  snap.HasHKS,
		hkr:     snap.HKr,
		hasHKR:  snap.HasHKR,
		nhks:    snap.NHKs,
		nhkr:    snap.NHKr,
		ns:      snap.Ns,
		nr:      snap.Nr,
		pn:      snap.Pn,
		skipped: newSkippedStore(cfg.MaxSkipGlobal),
	}
	s.nonceMsg.prefix = snap.NoncePrefixMsg
	s.nonceMsg.counter = snap.NonceCounterMsg
	s.nonceHdr.prefix = snap.NoncePrefixHdr
	s.nonceHdr.counter = snap.NonceCounterHdr
	for _, e := range snap.Skipped {
		s.skipped.entries = append(s.skipped.entries, skippedEntry{hk: e.HK, idx: e.Idx, mk: e.MK})
	}
	return s
}

// clone performs a deep, independent copy of the state, used to stage a
// Decrypt attempt so a failure midway through never mutates the
// committed state (spec.md §5).
func (s *RatchetState) clone() *RatchetState {
	out := *s
	out.skipped = s.skipped.clone()
	return &out
}

// adopt replaces s's contents with other's, used to commit a staged
// clone back into the live state on success.
func (s *RatchetState) adopt(other *RatchetState) {
	s.scrub()
	*s = *other
}

// scrub zeroes every secret field and empties the skipped-key store
// (C9, spec.md §4.9).
func (s *RatchetState) scrub() {
	s.dhsPriv.Scrub()
	s.rk.Scrub()
	s.cks.Scrub()
	s.ckr.Scrub()
	s.hks.Scrub()
	s.hkr.Scrub()
	s.nhks.Scrub()
	s.nhkr.Scrub()
	if s.skipped != nil {
		s.skipped.scrub()
	}
	s.nonceMsg.scrub()
	s.nonceHdr.scrub()
	s.ns, s.nr, s.pn = 0, 0, 0
}

// dhRatchetStep advances the ratchet on receipt of a new peer public key
// (C5, spec.md §4.5). It must only be called with a peerPub that has
// already been shown to differ from the current dhrPub.
func (s *RatchetState) dhRatchetStep(peerPub PubKey32) error {
	if isLowOrder(peerPub) {
		return ErrInvalidPublicKey
	}

	s.pn = s.ns
	s.ns = 0
	s.nr = 0

	s.hks, s.hasHKS = s.nhks, true
	s.hkr, s.hasHKR = s.nhkr, true

	s.dhrPub = peerPub
	s.hasDHR = true

	dh1, err := dh(s.dhsPriv, s.dhrPub)
	if err != nil {
		return err
	}
	s.rk, s.ckr, s.nhkr = kdfRK(s.rk, dh1)
	s.hasCKR = true
	wipe(dh1[:])

	newPriv, newPub, err := generateDH(s.cfg.Rand)
	if err != nil {
		return err
	}
	s.dhsPriv.Scrub()
	s.dhsPriv, s.dhsPub = newPriv, newPub

	dh2, err := dh(s.dhsPriv, s.dhrPub)
	if err != nil {
		return err
	}
	s.rk, s.cks, s.nhks = kdfRK(s.rk, dh2)
	s.hasCKS = true
	wipe(dh2[:])

	if err := s.nonceMsg.reseed(s.cfg.Rand); err != nil {
		return err
	}
	if err := s.nonceHdr.reseed(s.cfg.Rand); err != nil {
		return err
	}
	return nil
}

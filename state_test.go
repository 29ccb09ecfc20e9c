package ratchet

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxSkipPerChain != 1000 {
		t.Fatalf("expected MaxSkipPerChain=1000, got %d", cfg.MaxSkipPerChain)
	}
	if cfg.MaxSkipGlobal != 2000 {
		t.Fatalf("expected MaxSkipGlobal=2000, got %d", cfg.MaxSkipGlobal)
	}
	if cfg.Rand == nil {
		t.Fatal("expected a non-nil default random source")
	}
}

func TestInitSenderRejectsLowOrderPeer(t *testing.T) {
	cfg := DefaultConfig()
	var sk, hka, hnkb Key32
	rand.Read(sk[:])
	rand.Read(hka[:])
	rand.Read(hnkb[:])

	if _, err := InitSender(cfg, sk, PubKey32(lowOrderPoints[0]), hka, hnkb); err != ErrInvalidPublicKey {
		t.Fatalf("expected ErrInvalidPublicKey, got %v", err)
	}
}

func TestSnapshotRestoreIsEquivalent(t *testing.T) {
	alice, bob := newPair(t)

	msg, err := alice.Encrypt([]byte("hello"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bob.Decrypt(msg, nil); err != nil {
		t.Fatal(err)
	}

	snap := bob.Snapshot()
	restored := RestoreSnapshot(bob.cfg, snap)

	msg2, err := alice.Encrypt([]byte("world"), nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := restored.Decrypt(msg2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("world")) {
		t.Fatalf("expected %q, got %q", "world", got)
	}
}

func TestScrubZeroesSecretMaterial(t *testing.T) {
	alice, _ := newPair(t)
	alice.scrub()

	var zero Key32
	if alice.rk != zero {
		t.Fatal("expected root key to be zeroed after scrub")
	}
	if alice.cks != zero {
		t.Fatal("expected sending chain key to be zeroed after scrub")
	}
	if alice.skipped.len() != 0 {
		t.Fatal("expected skipped store to be emptied after scrub")
	}
}

package ratchet

import (
	"bytes"
	"testing"
)

func TestEncryptStaticDoesNotAdvanceState(t *testing.T) {
	alice, bob := newPair(t)

	// alice is the sender; bob only gains a sending chain once it has
	// decrypted alice's first message and performed its own DH step.
	msg, err := alice.Encrypt([]byte("bootstrap"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bob.Decrypt(msg, nil); err != nil {
		t.Fatal(err)
	}

	nsBefore := bob.ns
	out1, err := bob.EncryptStatic([]byte("peek one"), nil)
	if err != nil {
		t.Fatal(err)
	}
	out2, err := bob.EncryptStatic([]byte("peek two"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if bob.ns != nsBefore {
		t.Fatalf("EncryptStatic advanced ns: before=%d after=%d", nsBefore, bob.ns)
	}
	if bytes.Equal(out1.Ciphertext, out2.Ciphertext) {
		t.Fatal("expected independent ciphertexts from repeated static calls")
	}

	// A real Encrypt afterward must still work normally, proving no
	// hidden state was consumed.
	real, err := bob.Encrypt([]byte("real message"), nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := alice.Decrypt(real, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("real message")) {
		t.Fatalf("expected %q, got %q", "real message", got)
	}
}

func TestDecryptStaticPeeksWithoutAdvancing(t *testing.T) {
	alice, bob := newPair(t)

	// Establish both directions with one real exchange each way so both
	// sides have a receiving chain in place.
	msg0, err := alice.Encrypt([]byte("bootstrap"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bob.Decrypt(msg0, nil); err != nil {
		t.Fatal(err)
	}
	msg1, err := bob.Encrypt([]byte("establish"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := alice.Decrypt(msg1, nil); err != nil {
		t.Fatal(err)
	}

	snapshot := alice.clone()
	nrBefore := snapshot.nr

	// EncryptStatic does not advance bob's ns, so repeated calls stay at
	// the same chain position alice's nr currently expects.
	peek, err := bob.EncryptStatic([]byte("hello"), nil)
	if err != nil {
		t.Fatal(err)
	}
	real, err := bob.EncryptStatic([]byte("hello"), nil)
	if err != nil {
		t.Fatal(err)
	}

	peeked, err := snapshot.DecryptStatic(peek, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(peeked, []byte("hello")) {
		t.Fatalf("expected %q, got %q", "hello", peeked)
	}
	if snapshot.nr != nrBefore {
		t.Fatalf("DecryptStatic advanced nr: before=%d after=%d", nrBefore, snapshot.nr)
	}

	// The same chain position still decrypts normally through the real
	// Decrypt path, proving EncryptStatic never consumed it.
	got, err := alice.Decrypt(real, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
}

func TestDecryptOwnStaticRoundTrip(t *testing.T) {
	alice, _ := newPair(t)

	msg, err := alice.EncryptStatic([]byte("draft"), nil)
	if err != nil {
		t.Fatal(err)
	}

	got, err := alice.DecryptOwnStatic(msg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("draft")) {
		t.Fatalf("expected %q, got %q", "draft", got)
	}
}

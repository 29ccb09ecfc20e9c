package x3dh

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveHeaderKeysDeterministic(t *testing.T) {
	var sk [32]byte
	_, err := rand.Read(sk[:])
	require.NoError(t, err)

	k1, err := DeriveHeaderKeys(sk)
	require.NoError(t, err)
	k2, err := DeriveHeaderKeys(sk)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1.Sending, k1.Receiving)
}

func TestDeriveHeaderKeysDiffersPerSecret(t *testing.T) {
	var sk1, sk2 [32]byte
	_, err := rand.Read(sk1[:])
	require.NoError(t, err)
	_, err = rand.Read(sk2[:])
	require.NoError(t, err)

	k1, err := DeriveHeaderKeys(sk1)
	require.NoError(t, err)
	k2, err := DeriveHeaderKeys(sk2)
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}

func TestBothPartiesDeriveMatchingHeaderKeys(t *testing.T) {
	var sk [32]byte
	_, err := rand.Read(sk[:])
	require.NoError(t, err)

	initiator, err := DeriveHeaderKeys(sk)
	require.NoError(t, err)
	responder, err := DeriveHeaderKeys(sk)
	require.NoError(t, err)

	// Both parties derive from the same shared secret and so compute
	// identical labeled keys; role assignment happens at
	// ratchet.InitSender/ratchet.InitReceiver, not here.
	assert.Equal(t, initiator.Sending, responder.Sending)
	assert.Equal(t, initiator.Receiving, responder.Receiving)
}

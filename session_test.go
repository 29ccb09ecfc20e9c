package ratchet

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionPair(t *testing.T) (a, b *Session) {
	t.Helper()

	var idA, idB PubKey32
	_, err := rand.Read(idA[:])
	require.NoError(t, err)
	_, err = rand.Read(idB[:])
	require.NoError(t, err)

	sender, receiver := newPair(t)
	a = NewSession(sender, idA, idB)
	b = NewSession(receiver, idB, idA)
	return a, b
}

func TestSessionEncryptDecrypt(t *testing.T) {
	alice, bob := newSessionPair(t)

	env, err := alice.Encrypt([]byte("hello bob"))
	require.NoError(t, err)
	assert.Equal(t, EnvelopeInitial, env.Kind)

	got, err := bob.Decrypt(env)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello bob"), got)

	env2, err := alice.Encrypt([]byte("second message"))
	require.NoError(t, err)
	assert.Equal(t, EnvelopeStandard, env2.Kind)

	got2, err := bob.Decrypt(env2)
	require.NoError(t, err)
	assert.Equal(t, []byte("second message"), got2)
}

func TestSessionAssociatedDataOrderIndependent(t *testing.T) {
	var idA, idB PubKey32
	_, err := rand.Read(idA[:])
	require.NoError(t, err)
	_, err = rand.Read(idB[:])
	require.NoError(t, err)

	ad1 := sessionAD(idA, idB)
	ad2 := sessionAD(idB, idA)
	assert.Equal(t, ad1, ad2)
}

func TestSessionRejectsUnsupportedVersion(t *testing.T) {
	alice, bob := newSessionPair(t)

	env, err := alice.Encrypt([]byte("hi"))
	require.NoError(t, err)
	env.Version = 99

	_, err = bob.Decrypt(env)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestSessionIDDeterministic(t *testing.T) {
	var sk Key32
	_, err := rand.Read(sk[:])
	require.NoError(t, err)

	id1 := SessionID(sk)
	id2 := SessionID(sk)
	assert.Equal(t, id1, id2)

	var other Key32
	_, err = rand.Read(other[:])
	require.NoError(t, err)
	id3 := SessionID(other)
	assert.NotEqual(t, id1, id3)
}

func TestSessionDecryptRejectsInitialOnEstablishedSession(t *testing.T) {
	alice, bob := newSessionPair(t)

	env, err := alice.Encrypt([]byte("hello bob"))
	require.NoError(t, err)
	_, err = bob.Decrypt(env)
	require.NoError(t, err)

	env2, err := alice.Encrypt([]byte("second message"))
	require.NoError(t, err)
	env2.Kind = EnvelopeInitial
	env2.InitiatorIdentity = alice.selfID
	env2.InitiatorEphemeral = alice.state.dhsPub

	_, err = bob.Decrypt(env2)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSessionTamperedEnvelopeFailsAsDecryptionFailed(t *testing.T) {
	alice, bob := newSessionPair(t)

	env, err := alice.Encrypt([]byte("hi"))
	require.NoError(t, err)
	env.Msg.Ciphertext[0] ^= 0xff

	_, err = bob.Decrypt(env)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

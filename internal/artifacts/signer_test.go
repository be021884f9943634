package artifacts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

func TestNewSignerFromSeed(t *testing.T) {
	signer, err := NewSignerFromSeed(testSeed)
	require.NoError(t, err)
	assert.Len(t, signer.PublicKey(), 64)
}

func TestNewSignerFromSeedRejectsBadInput(t *testing.T) {
	_, err := NewSignerFromSeed("not hex")
	assert.Error(t, err)

	_, err = NewSignerFromSeed("abcd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestSignVerifyRoundTrip(t *testing.T) {
	signer, err := NewSignerFromSeed(testSeed)
	require.NoError(t, err)

	payload := []byte("# Gem Scan: Glowcoin (GLOW)\n")
	sig := signer.Sign(payload)

	ok, err := Verify(signer.PublicKey(), payload, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	signer, err := NewSignerFromSeed(testSeed)
	require.NoError(t, err)

	sig := signer.Sign([]byte("original"))
	ok, err := Verify(signer.PublicKey(), []byte("tampered"), sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	signer, err := NewSignerFromSeed(testSeed)
	require.NoError(t, err)
	other, err := NewSignerFromSeed(strings.Repeat("42", 32))
	require.NoError(t, err)

	payload := []byte("payload")
	sig := signer.Sign(payload)
	ok, err := Verify(other.PublicKey(), payload, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyInputValidation(t *testing.T) {
	signer, err := NewSignerFromSeed(testSeed)
	require.NoError(t, err)
	sig := signer.Sign([]byte("x"))

	_, err = Verify("zzzz", []byte("x"), sig)
	assert.Error(t, err)

	_, err = Verify("abcd", []byte("x"), sig)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")

	_, err = Verify(signer.PublicKey(), []byte("x"), "!!! not base64 !!!")
	assert.Error(t, err)
}

func TestSignDeterministic(t *testing.T) {
	signer, err := NewSignerFromSeed(testSeed)
	require.NoError(t, err)

	payload := []byte("same payload")
	assert.Equal(t, signer.Sign(payload), signer.Sign(payload))
}

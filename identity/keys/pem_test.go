package keys_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bramblewire/securelink/identity"
	"github.com/bramblewire/securelink/identity/keys"
)

func TestLoadOrGenerateRSAKeyPairGeneratesThenReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.pem")

	kp, err := keys.LoadOrGenerateRSAKeyPair(path)
	require.NoError(t, err)
	require.NotEmpty(t, kp.ID())

	reloaded, err := keys.LoadOrGenerateRSAKeyPair(path)
	require.NoError(t, err)
	assert.Equal(t, kp.ID(), reloaded.ID())
	assert.Equal(t, kp.PublicKeyBytes(), reloaded.PublicKeyBytes())
}

func TestPublicKeyPEMRoundTrip(t *testing.T) {
	kp, err := keys.GenerateRSAKeyPair()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "identity.pub.pem")
	require.NoError(t, keys.WritePublicKeyPEM(path, kp.PublicKeyBytes()))

	der, err := keys.ReadPublicKeyPEM(path)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKeyBytes(), der)

	verifier, err := keys.NewVerifier(identity.KeyTypeRSA, der)
	require.NoError(t, err)
	assert.Equal(t, kp.ID(), verifier.ID())
}

func TestReadPublicKeyPEMRejectsWrongBlockType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.pem")

	// A private-key file is not a valid input to ReadPublicKeyPEM.
	_, err := keys.LoadOrGenerateRSAKeyPair(path)
	require.NoError(t, err)

	_, err = keys.ReadPublicKeyPEM(path)
	assert.Error(t, err)
}

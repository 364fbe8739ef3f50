package vaultcrypto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	s, err := NewSealer("correct horse")
	require.NoError(t, err)

	sealed, err := s.Seal([]byte(`{"projects":[]}`))
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, string(sealed), "projects")

	// a fresh sealer with the same passphrase reads it
	other, err := NewSealer("correct horse")
	require.NoError(t, err)
	plain, err := other.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, `{"projects":[]}`, string(plain))
}

func TestOpenWrongPassphrase(t *testing.T) {
	s, _ := NewSealer("one")
	sealed, err := s.Seal([]byte("secret"))
	require.NoError(t, err)

	wrong, _ := NewSealer("two")
	_, err = wrong.Open(sealed)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestIsSealedPlainJSON(t *testing.T) {
	assert.False(t, IsSealed([]byte(`{"projects":[]}`)))
	assert.False(t, IsSealed([]byte(`not json`)))
	assert.False(t, IsSealed(nil))
}

func TestEmptyPassphrase(t *testing.T) {
	_, err := NewSealer("")
	assert.Error(t, err)
}

func TestSaltIsReused(t *testing.T) {
	s, _ := NewSealer("pw")
	a, err := s.Seal([]byte("a"))
	require.NoError(t, err)
	b, err := s.Seal([]byte("b"))
	require.NoError(t, err)

	var ea, eb envelope
	require.NoError(t, json.Unmarshal(a, &ea))
	require.NoError(t, json.Unmarshal(b, &eb))
	assert.Equal(t, ea.Salt, eb.Salt)
	assert.NotEqual(t, ea.Data, eb.Data)
}

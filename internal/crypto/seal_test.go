package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	key, err := GenerateSealingKey()
	require.NoError(t, err)
	require.Len(t, key, SealKeySize)

	sealed, err := Seal([]byte(`{"temporaryPassphrase":"p"}`), key)
	require.NoError(t, err)

	opened, err := Open(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, `{"temporaryPassphrase":"p"}`, string(opened))
}

func TestOpen_WrongKey(t *testing.T) {
	k1, err := GenerateSealingKey()
	require.NoError(t, err)
	k2, err := GenerateSealingKey()
	require.NoError(t, err)

	sealed, err := Seal([]byte("data"), k1)
	require.NoError(t, err)

	_, err = Open(sealed, k2)
	require.Error(t, err)
}

func TestOpen_TooShort(t *testing.T) {
	key, err := GenerateSealingKey()
	require.NoError(t, err)

	_, err = Open(make([]byte, NonceSize), key)
	require.Error(t, err)
}

func TestDeriveSealingKey_Deterministic(t *testing.T) {
	params := SealParams{Memory: 1024, Iterations: 1, Parallelism: 1}

	k1 := DeriveSealingKey([]byte("home:user"), []byte("salt"), params)
	k2 := DeriveSealingKey([]byte("home:user"), []byte("salt"), params)

	assert.Len(t, k1, SealKeySize)
	assert.Equal(t, k1, k2)
}

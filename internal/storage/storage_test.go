package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// providerContract runs the Provider behaviour every implementation shares.
func providerContract(t *testing.T, p Provider) {
	t.Helper()
	ctx := context.Background()

	got, err := p.Get(ctx, KeyPad, KeyLastModified)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, p.Set(ctx, map[string]*string{
		KeyPad:          Value("envelope"),
		KeyLastModified: FormatInt(1700000000000),
	}))

	got, err = p.Get(ctx, KeyPad, KeyLastModified, KeyLockAfterSeconds)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		KeyPad:          "envelope",
		KeyLastModified: "1700000000000",
	}, got)

	require.NoError(t, p.Set(ctx, map[string]*string{KeyLastModified: nil}))

	got, err = p.Get(ctx, KeyPad, KeyLastModified)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{KeyPad: "envelope"}, got)
}

func TestMemoryStorage(t *testing.T) {
	providerContract(t, NewMemoryStorage())
}

func TestMemoryStorage_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ms := NewMemoryStorage()
	_, err := ms.Get(ctx, KeyPad)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, ms.Set(ctx, map[string]*string{KeyPad: Value("x")}), context.Canceled)
}

func TestLocalStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pad.json")
	ls := NewLocalStorage(path)
	assert.False(t, ls.Exists())

	providerContract(t, ls)
	assert.True(t, ls.Exists())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A second instance sees the persisted values.
	got, err := NewLocalStorage(path).Get(context.Background(), KeyPad)
	require.NoError(t, err)
	assert.Equal(t, "envelope", got[KeyPad])
}

func TestLocalStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewLocalStorage(path).Get(context.Background(), KeyPad)
	require.ErrorIs(t, err, ErrStorageFailure)
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{in: "", want: 0, wantOK: false},
		{in: "abc", want: 0, wantOK: false},
		{in: "0", want: 0, wantOK: true},
		{in: "300", want: 300, wantOK: true},
		{in: "-5", want: -5, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseInt(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

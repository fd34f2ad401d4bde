package joincode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	code, err := New(6)
	require.NoError(t, err)
	require.Len(t, code, 6)
	for _, r := range code {
		require.True(t, strings.ContainsRune(alphabet, r), "unexpected character %q", r)
	}
}

func TestNewDefaultsLength(t *testing.T) {
	code, err := New(0)
	require.NoError(t, err)
	require.Len(t, code, DefaultLength)
}

func TestNewIsNotConstant(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := New(8)
		require.NoError(t, err)
		seen[code] = true
	}
	require.Greater(t, len(seen), 1)
}

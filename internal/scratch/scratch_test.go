package scratch

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	dir, err := Acquire("marketdigest_test_")
	require.NoError(t, err)

	err = os.WriteFile(dir.File("fx.csv"), []byte("a\n1\n"), 0600)
	require.NoError(t, err)

	require.NoError(t, dir.Release())
	_, err = os.Stat(dir.Path())
	require.True(t, os.IsNotExist(err))

	require.NoError(t, dir.Release())
}

func TestAcquireIsolated(t *testing.T) {
	a, err := Acquire("marketdigest_test_")
	require.NoError(t, err)
	defer a.Release()
	b, err := Acquire("marketdigest_test_")
	require.NoError(t, err)
	defer b.Release()

	require.NotEqual(t, a.Path(), b.Path())
}

package pid

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"codeberg.org/mutker/duckovhaptics/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRemove(t *testing.T) {
	f := New(t.TempDir(), DefaultName)

	require.NoError(t, f.Write())
	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	// Our own PID does not block a rewrite
	require.NoError(t, f.Write())

	require.NoError(t, f.Remove())
	require.NoError(t, f.Remove())
	_, err = os.Stat(f.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestWriteReplacesStaleFile(t *testing.T) {
	f := New(t.TempDir(), DefaultName)

	for _, stale := range []string{"999999999", "garbage", ""} {
		require.NoError(t, os.WriteFile(f.Path(), []byte(stale), 0o600))
		require.NoError(t, f.Write(), stale)
	}
}

func TestWriteRefusesLiveProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signal 0 is not supported on windows")
	}

	f := New(t.TempDir(), DefaultName)
	require.NoError(t, os.WriteFile(f.Path(), []byte(strconv.Itoa(os.Getppid())), 0o600))

	err := f.Write()
	assert.True(t, errors.HasCode(err, errors.ErrAlreadyRunning))
}

func TestNewDefaultsToTempDir(t *testing.T) {
	assert.Equal(t, filepath.Join(os.TempDir(), "x.pid"), New("", "x.pid").Path())
}

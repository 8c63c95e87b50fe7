//go:build !windows

package ipc

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketPathOverride(t *testing.T) {
	t.Setenv("MAGCLIP_SOCKET", "/tmp/custom.sock")
	assert.Equal(t, "/tmp/custom.sock", SocketPath())

	t.Setenv("MAGCLIP_SOCKET", "")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	assert.Equal(t, "/run/user/1000/magclip.sock", SocketPath())
}

func TestListenDialAndSingleInstance(t *testing.T) {
	// Unix socket paths are limited to ~100 bytes; t.TempDir can exceed that.
	dir, err := os.MkdirTemp("", "mc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "s.sock")
	t.Setenv("MAGCLIP_SOCKET", path)

	assert.False(t, IsRunning())

	ln, err := Listen()
	require.NoError(t, err)
	defer ln.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	assert.True(t, IsRunning())
	_, err = Listen()
	assert.ErrorIs(t, err, ErrRunning)

	c, err := Dial(time.Second)
	require.NoError(t, err)
	c.Close()
}

func TestListenReplacesStaleSocket(t *testing.T) {
	dir, err := os.MkdirTemp("", "mc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "s.sock")
	t.Setenv("MAGCLIP_SOCKET", path)
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	ln, err := Listen()
	require.NoError(t, err)
	ln.Close()
}

package viewer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soypat/stlview/viewer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloads(t *testing.T) {
	v := newViewer(t)
	path := filepath.Join(t.TempDir(), "part.stl")
	require.NoError(t, os.WriteFile(path, cubeSTL(t, 1), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	results := make(chan viewer.Result, 16)
	done := make(chan error, 1)
	go func() {
		done <- v.Watch(ctx, path, func(res viewer.Result, err error) {
			if err == nil {
				results <- res
			}
		})
	}()

	waitVolume := func(want float64) viewer.Result {
		t.Helper()
		timeout := time.After(5 * time.Second)
		for {
			select {
			case res := <-results:
				if res.Volume > want-1e-3 && res.Volume < want+1e-3 {
					return res
				}
			case <-timeout:
				t.Fatalf("timed out waiting for volume %g", want)
			}
		}
	}
	first := waitVolume(1)

	// Replace the file atomically the way editors do.
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, cubeSTL(t, 2), 0o644))
	require.NoError(t, os.Rename(tmp, path))
	second := waitVolume(8)
	assert.Greater(t, second.Seq, first.Seq)

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	v := newViewer(t)
	err := v.Watch(context.Background(), filepath.Join(t.TempDir(), "missing", "part.stl"), func(viewer.Result, error) {})
	assert.Error(t, err)
}

package videos

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLibrary(t *testing.T, files ...string) *Library {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "clips.mp4"), 0755))
	return NewLibrary(dir)
}

func TestListFiltersByExtension(t *testing.T) {
	lib := newLibrary(t, "b.MP4", "a.avi", "notes.txt", "c.mkv")

	names, err := lib.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.avi", "b.MP4", "c.mkv"}, names)
}

func TestListMissingDirectory(t *testing.T) {
	names, err := NewLibrary(filepath.Join(t.TempDir(), "none")).List()
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestResolve(t *testing.T) {
	lib := newLibrary(t, "highway.mp4")

	src, err := lib.Resolve("highway.mp4")
	require.NoError(t, err)
	assert.Equal(t, Source{Name: "highway.mp4", Location: filepath.Join(lib.Dir(), "highway.mp4")}, src)

	src, err = lib.Resolve("../../etc/highway.mp4")
	require.NoError(t, err, "directory components are stripped")
	assert.Equal(t, "highway.mp4", src.Name)

	_, err = lib.Resolve("missing.mp4")
	assert.ErrorIs(t, err, ErrVideoNotFound)

	src, err = lib.Resolve("rtsp://10.0.0.9:8554/junction")
	require.NoError(t, err)
	assert.True(t, src.Live)
	assert.Equal(t, "rtsp://10.0.0.9:8554/junction", src.Location)
}

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) FileStorage {
	t.Helper()
	files, err := NewLocalStorage(
		filepath.Join(t.TempDir(), "uploads"),
		filepath.Join(t.TempDir(), "qr_codes"),
	)
	require.NoError(t, err)
	return files
}

func TestLocalStorageRoundTrip(t *testing.T) {
	files := newLocal(t)
	ctx := context.Background()

	require.NoError(t, files.Save(ctx, AreaAvatars, "avatar_deadbeef.jpg", "image/jpeg", []byte("jpeg-bytes")))

	data, contentType, err := files.Open(ctx, AreaAvatars, "avatar_deadbeef.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
	assert.Equal(t, "image/jpeg", contentType)

	require.NoError(t, files.Delete(ctx, AreaAvatars, "avatar_deadbeef.jpg"))
	_, _, err = files.Open(ctx, AreaAvatars, "avatar_deadbeef.jpg")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLocalStorageAreasAreIsolated(t *testing.T) {
	files := newLocal(t)
	ctx := context.Background()

	require.NoError(t, files.Save(ctx, AreaQRCodes, "qr_TC000001.png", "image/png", []byte("png-bytes")))

	_, _, err := files.Open(ctx, AreaAvatars, "qr_TC000001.png")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLocalStorageRejectsPathTraversal(t *testing.T) {
	files := newLocal(t)
	ctx := context.Background()

	for _, name := range []string{"../secret", "a/b.jpg", "..", ""} {
		_, _, err := files.Open(ctx, AreaAvatars, name)
		assert.ErrorIs(t, err, ErrFileNotFound, "name %q", name)
	}
}

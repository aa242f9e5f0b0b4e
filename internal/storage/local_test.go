package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SaveGetDelete(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := l.Save(ctx, "miniature.png", strings.NewReader("\x89PNG fake image"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "miniature.png", ref)

	b, mimeType, err := l.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG fake image", string(b))
	assert.Equal(t, "image/png", mimeType)

	require.NoError(t, l.Delete(ctx, ref))
	_, _, err = l.Get(ctx, ref)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, l.Delete(ctx, ref), ErrNotFound)
}

func TestLocal_GetMissing(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	_, _, err = l.Get(context.Background(), "nope.mp4")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUniqueName(t *testing.T) {
	a, err := UniqueName(".mp4")
	require.NoError(t, err)
	b, err := UniqueName(".mp4")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, ".mp4", filepath.Ext(a))
	assert.Len(t, a, 16+len(".mp4"))
}

package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Rrens/shaman-chat/internal/attachment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadStore_Save(t *testing.T) {
	dir := t.TempDir()
	store, err := NewUploadStore(dir, "")
	require.NoError(t, err)
	userID := uuid.New()

	t.Run("image", func(t *testing.T) {
		png := "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"
		stored, err := store.Save(userID, Upload{Filename: "Cat.PNG", ContentType: "image/png", Reader: strings.NewReader(png)})
		require.NoError(t, err)

		assert.Equal(t, attachment.CategoryImage, stored.Category)
		assert.Equal(t, "Cat.PNG", stored.OriginalName)
		assert.True(t, strings.HasPrefix(stored.StoredName, userID.String()+"_"))
		assert.Equal(t, ".png", filepath.Ext(stored.StoredName))
		assert.Empty(t, store.URL(stored))

		_, ok, err := store.ReadText(stored)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("csv without declared type", func(t *testing.T) {
		stored, err := store.Save(userID, Upload{Filename: "data.csv", Reader: strings.NewReader("a,b\n1,2\n")})
		require.NoError(t, err)
		assert.Equal(t, attachment.CategoryDocument, stored.Category)

		text, ok, err := store.ReadText(stored)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "a,b\n1,2\n", text)
	})

	t.Run("unsupported file is removed", func(t *testing.T) {
		before, err := os.ReadDir(dir)
		require.NoError(t, err)

		_, err = store.Save(userID, Upload{Filename: "archive.zip", ContentType: "application/zip", Reader: strings.NewReader("PK\x03\x04")})
		assert.ErrorIs(t, err, ErrUnsupportedUpload)

		after, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})
}

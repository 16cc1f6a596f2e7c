package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rrens/shaman-chat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegalService_Get(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "terms_of_use.html")
	require.NoError(t, os.WriteFile(path, []byte("<h1>Terms</h1>"), 0o644))
	modTime := time.Date(2025, 11, 3, 12, 0, 0, 0, time.Local)
	require.NoError(t, os.Chtimes(path, modTime, modTime))

	svc := NewLegalService(dir)
	ctx := context.Background()

	doc, err := svc.Get(ctx, domain.LegalTerms)
	require.NoError(t, err)
	assert.Equal(t, "Terms of Use", doc.Title)
	assert.Equal(t, "<h1>Terms</h1>", doc.Content)
	assert.Equal(t, "03.11.2025", doc.UpdateDate)

	_, err = svc.Get(ctx, domain.LegalPrivacy)
	assert.ErrorIs(t, err, ErrUnknownDocument)

	_, err = svc.Get(ctx, "cookies")
	assert.ErrorIs(t, err, ErrUnknownDocument)
}

package attachment_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Rrens/shaman-chat/internal/attachment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFile(name, mimeType string, content []byte) *attachment.File {
	return &attachment.File{
		Name:     name,
		MIMEType: mimeType,
		Size:     int64(len(content)),
		Content:  bytes.NewReader(content),
	}
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		name     string
		category attachment.Category
		mimeType string
		file     string
		expected bool
	}{
		{"pdf", attachment.CategoryDocument, "application/pdf", "a.pdf", true},
		{"csv with params", attachment.CategoryDocument, "text/csv; charset=utf-8", "a.csv", true},
		{"docx by extension", attachment.CategoryDocument, "", "report.DOCX", true},
		{"png as image", attachment.CategoryImage, "image/png", "cat.png", true},
		{"png as document", attachment.CategoryDocument, "image/png", "cat.png", false},
		{"svg", attachment.CategoryImage, "image/svg+xml", "logo.svg", false},
		{"executable", attachment.CategoryDocument, "application/x-msdownload", "notes.exe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, attachment.Allowed(tt.category, tt.mimeType, tt.file))
		})
	}
}

func TestStager_RejectsUnsupportedType(t *testing.T) {
	s := attachment.NewStager()

	err := s.Stage(memFile("notes.exe", "application/x-msdownload", []byte("MZ")), attachment.CategoryDocument)

	var unsupported *attachment.UnsupportedTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "notes.exe", unsupported.Name)
	assert.Nil(t, s.Current())
	assert.Empty(t, s.Preview())
}

func TestStager_RejectsOversize(t *testing.T) {
	s := attachment.NewStager()
	f := &attachment.File{Name: "huge.pdf", MIMEType: "application/pdf", Size: attachment.MaxSize + 1}

	err := s.Stage(f, attachment.CategoryDocument)

	var oversize *attachment.OversizeError
	require.True(t, errors.As(err, &oversize))
	assert.Equal(t, attachment.MaxSize, oversize.Limit)
	assert.Contains(t, err.Error(), "10 MiB")
	assert.Contains(t, err.Error(), "10,485,761 bytes")
	assert.Nil(t, s.Current())
}

func TestStager_FailedStageKeepsPrevious(t *testing.T) {
	s := attachment.NewStager()
	require.NoError(t, s.Stage(memFile("cat.png", "image/png", []byte("x")), attachment.CategoryImage))

	err := s.Stage(memFile("notes.exe", "application/x-msdownload", nil), attachment.CategoryImage)
	require.Error(t, err)

	require.NotNil(t, s.Current())
	assert.Equal(t, "cat.png", s.Current().Name)

	big := &attachment.File{Name: "big.png", MIMEType: "image/png", Size: attachment.MaxSize + 1, Content: bytes.NewReader(nil)}
	err = s.Stage(big, attachment.CategoryImage)
	var oversize *attachment.OversizeError
	require.True(t, errors.As(err, &oversize))

	require.NotNil(t, s.Current())
	assert.Equal(t, "cat.png", s.Current().Name)
}

func TestOversizeError_RoundedSizesShowExactCount(t *testing.T) {
	err := &attachment.OversizeError{Name: "a.bin", Size: 12 << 20, Limit: attachment.MaxSize}
	assert.Equal(t, `file "a.bin" is 12 MiB, the limit is 10 MiB`, err.Error())
}

func TestStager_ClearIf(t *testing.T) {
	s := attachment.NewStager()
	a := memFile("a.txt", "text/plain", []byte("a"))
	b := memFile("b.txt", "text/plain", []byte("b"))
	require.NoError(t, s.Stage(a, attachment.CategoryDocument))
	require.NoError(t, s.Stage(b, attachment.CategoryDocument))

	assert.False(t, s.ClearIf(a))
	assert.Same(t, b, s.Current())
	assert.False(t, s.ClearIf(nil))

	assert.True(t, s.ClearIf(b))
	assert.Nil(t, s.Current())
}

func TestStager_ReplaceAndClear(t *testing.T) {
	s := attachment.NewStager()

	require.NoError(t, s.Stage(memFile("a.txt", "text/plain", make([]byte, 2048)), attachment.CategoryDocument))
	assert.Equal(t, "a.txt (2.0 KB)", s.Preview())

	require.NoError(t, s.Stage(memFile("b.pdf", "application/pdf", make([]byte, 12595)), attachment.CategoryDocument))
	assert.Equal(t, "b.pdf (12.3 KB)", s.Preview())
	assert.Equal(t, attachment.CategoryDocument, s.Current().Category)

	s.Clear()
	assert.Nil(t, s.Current())
	assert.Empty(t, s.Preview())
}

func TestStager_SniffsMissingType(t *testing.T) {
	s := attachment.NewStager()
	f := memFile("notes", "", []byte("just some plain words\n"))

	require.NoError(t, s.Stage(f, attachment.CategoryDocument))
	assert.Equal(t, "text/plain", f.MIMEType)

	// content is rewound after sniffing
	buf := make([]byte, 4)
	_, err := f.Content.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "just", string(buf))
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	f, err := attachment.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "notes.txt", f.Name)
	assert.Equal(t, int64(5), f.Size)

	s := attachment.NewStager()
	require.NoError(t, s.Stage(f, attachment.CategoryDocument))
	assert.Equal(t, "notes.txt (0.0 KB)", s.Preview())

	_, err = attachment.OpenFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestOpenFile_ExecutableRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.exe")
	require.NoError(t, os.WriteFile(path, []byte("MZ\x90\x00\x03\x00\x00\x00"), 0o600))

	f, err := attachment.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	err = attachment.NewStager().Stage(f, attachment.CategoryDocument)
	var unsupported *attachment.UnsupportedTypeError
	assert.True(t, errors.As(err, &unsupported))
}

func TestClassify(t *testing.T) {
	c, ok := attachment.Classify("image/jpeg", "photo.jpg")
	assert.True(t, ok)
	assert.Equal(t, attachment.CategoryImage, c)

	c, ok = attachment.Classify("application/octet-stream", "data.csv")
	assert.True(t, ok)
	assert.Equal(t, attachment.CategoryDocument, c)

	_, ok = attachment.Classify("application/zip", "archive.zip")
	assert.False(t, ok)

	assert.True(t, attachment.IsPlainText("text/plain; charset=utf-8", "x"))
	assert.False(t, attachment.IsPlainText("application/pdf", "x.pdf"))
}

func TestStager_StagePath(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(good, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))

	s := attachment.NewStager()
	require.NoError(t, s.StagePath(good, attachment.CategoryImage))
	assert.Equal(t, "photo.png", s.Current().Name)
	assert.Equal(t, "image/png", s.Current().MIMEType)

	assert.Error(t, s.StagePath(filepath.Join(dir, "nope.png"), attachment.CategoryImage))
	assert.Equal(t, "photo.png", s.Current().Name)
	s.Clear()
}

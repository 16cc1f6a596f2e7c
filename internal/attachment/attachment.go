// Package attachment validates and holds the single file staged for the
// next outgoing chat message.
package attachment

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxSize is the largest file that can be staged
const MaxSize int64 = 10 << 20

// Category selects the allow-list a file is checked against
type Category string

const (
	CategoryDocument Category = "document"
	CategoryImage    Category = "image"
)

var documentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
	"text/csv":   true,
}

var documentExtensions = map[string]bool{
	".doc":  true,
	".docx": true,
	".txt":  true,
	".csv":  true,
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Allowed reports whether a file with the given type and name fits the category.
// Documents fall back to the file extension when the type is not recognized.
func Allowed(category Category, mimeType, name string) bool {
	mt := baseType(mimeType)
	switch category {
	case CategoryImage:
		return imageTypes[mt]
	case CategoryDocument:
		return documentTypes[mt] || documentExtensions[strings.ToLower(filepath.Ext(name))]
	default:
		return false
	}
}

// Classify picks the category a file belongs to, if any
func Classify(mimeType, name string) (Category, bool) {
	if Allowed(CategoryImage, mimeType, name) {
		return CategoryImage, true
	}
	if Allowed(CategoryDocument, mimeType, name) {
		return CategoryDocument, true
	}
	return "", false
}

// IsPlainText reports whether the document text can be read as is
func IsPlainText(mimeType, name string) bool {
	switch baseType(mimeType) {
	case "text/plain", "text/csv":
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".csv":
		return true
	}
	return false
}

func baseType(mimeType string) string {
	mt, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// File is a candidate attachment
type File struct {
	Name     string
	MIMEType string
	Size     int64
	Category Category
	Path     string
	Content  io.ReadSeeker
	closer   io.Closer
}

// Close releases the underlying file handle, if any
func (f *File) Close() error {
	if f == nil || f.closer == nil {
		return nil
	}
	err := f.closer.Close()
	f.closer = nil
	return err
}

// Rewind positions the content at its start so it can be read again
func (f *File) Rewind() error {
	if f.Content == nil {
		return nil
	}
	if _, err := f.Content.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind %s: %w", f.Name, err)
	}
	return nil
}

// SizeLabel renders the size the way the preview shows it, e.g. "12.3 KB"
func (f *File) SizeLabel() string {
	return fmt.Sprintf("%.1f KB", float64(f.Size)/1024)
}

// OpenFile builds a File from disk. The declared type comes from the
// extension and is sniffed from the content when the extension is unknown.
func OpenFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open attachment: %w", err)
	}
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.IsDir() {
		fh.Close()
		return nil, fmt.Errorf("attachment %s is a directory", path)
	}

	return &File{
		Name:     filepath.Base(path),
		MIMEType: baseType(mime.TypeByExtension(filepath.Ext(path))),
		Size:     info.Size(),
		Path:     path,
		Content:  fh,
		closer:   fh,
	}, nil
}

// Sniff detects the MIME type from the content and rewinds it
func Sniff(r io.ReadSeeker) (string, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind after sniffing: %w", err)
	}
	return baseType(mt.String()), nil
}

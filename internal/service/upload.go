package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rrens/shaman-chat/internal/attachment"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrUnsupportedUpload is returned when an uploaded file is neither an image nor a document
var ErrUnsupportedUpload = errors.New("unsupported file type")

// Upload is a file received with a dialogue request
type Upload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// StoredUpload describes a saved upload
type StoredUpload struct {
	OriginalName string
	StoredName   string
	Path         string
	MIMEType     string
	Category     attachment.Category
}

// UploadStore saves dialogue attachments on disk
type UploadStore struct {
	dir       string
	publicURL string
}

// NewUploadStore creates the upload directory if needed
func NewUploadStore(dir, publicURL string) (*UploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &UploadStore{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Save writes the upload as <user>_<uuid><ext> and classifies it. Files that
// fit no category are removed again and ErrUnsupportedUpload is returned.
func (s *UploadStore) Save(userID uuid.UUID, up Upload) (*StoredUpload, error) {
	name := filepath.Base(up.Filename)
	stored := fmt.Sprintf("%s_%s%s", userID, uuid.New(), strings.ToLower(filepath.Ext(name)))
	path := filepath.Join(s.dir, stored)

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(dst, up.Reader); err != nil {
		dst.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	mimeType := up.ContentType
	category, ok := attachment.Classify(mimeType, name)
	if !ok {
		sniffed, err := mimetype.DetectFile(path)
		if err == nil {
			mimeType = sniffed.String()
			category, ok = attachment.Classify(mimeType, name)
		}
	}
	if !ok {
		os.Remove(path)
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedUpload, name)
	}

	return &StoredUpload{
		OriginalName: name,
		StoredName:   stored,
		Path:         path,
		MIMEType:     mimeType,
		Category:     category,
	}, nil
}

// URL returns the public address of a stored upload, or "" when none is configured
func (s *UploadStore) URL(u *StoredUpload) string {
	if s.publicURL == "" || u == nil {
		return ""
	}
	return s.publicURL + "/" + u.StoredName
}

// Remove deletes a stored upload. Failures are logged.
func (s *UploadStore) Remove(u *StoredUpload) {
	if u == nil {
		return
	}
	if err := os.Remove(u.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("file", u.StoredName).Msg("failed to remove upload")
	}
}

// ReadText returns the document text for plain-text uploads. ok is false
// for formats whose text cannot be extracted.
func (s *UploadStore) ReadText(u *StoredUpload) (text string, ok bool, err error) {
	if u.Category != attachment.CategoryDocument || !attachment.IsPlainText(u.MIMEType, u.OriginalName) {
		return "", false, nil
	}
	data, err := os.ReadFile(u.Path)
	if err != nil {
		return "", false, fmt.Errorf("failed to read upload: %w", err)
	}
	return string(data), true, nil
}

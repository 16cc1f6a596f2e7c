package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Rrens/shaman-chat/internal/domain"
)

// ErrUnknownDocument is returned for legal document types that do not exist
var ErrUnknownDocument = errors.New("document not found")

const legalDateLayout = "02.01.2006"

type legalSource struct {
	title string
	file  string
}

var legalSources = map[string]legalSource{
	domain.LegalTerms:   {title: "Terms of Use", file: "terms_of_use.html"},
	domain.LegalPrivacy: {title: "Privacy Policy", file: "privacy_policy.html"},
}

// LegalService serves the static legal pages
type LegalService struct {
	dir string
}

// NewLegalService creates a legal service reading documents from dir
func NewLegalService(dir string) *LegalService {
	return &LegalService{dir: dir}
}

// Get returns the document for docType. UpdateDate is the file's modification date.
func (s *LegalService) Get(_ context.Context, docType string) (*domain.LegalDocument, error) {
	src, ok := legalSources[docType]
	if !ok {
		return nil, ErrUnknownDocument
	}

	path := filepath.Join(s.dir, src.file)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrUnknownDocument
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", src.file, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src.file, err)
	}

	return &domain.LegalDocument{
		Title:      src.title,
		Content:    string(content),
		UpdateDate: info.ModTime().Format(legalDateLayout),
	}, nil
}

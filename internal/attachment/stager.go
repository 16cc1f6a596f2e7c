package attachment

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Stager holds at most one pending attachment
type Stager struct {
	mu      sync.Mutex
	current *File
	limit   int64
}

// NewStager creates an empty stager enforcing MaxSize
func NewStager() *Stager {
	return &Stager{limit: MaxSize}
}

// Stage validates f against the category and, on success, replaces the
// staged file. On failure the slot is left untouched and the caller keeps
// ownership of f.
func (s *Stager) Stage(f *File, category Category) error {
	if f.Size > s.limit {
		return &OversizeError{Name: f.Name, Size: f.Size, Limit: s.limit}
	}

	mt := baseType(f.MIMEType)
	if mt == "" && f.Content != nil {
		sniffed, err := Sniff(f.Content)
		if err != nil {
			return err
		}
		mt = sniffed
	}
	if !Allowed(category, mt, f.Name) {
		return &UnsupportedTypeError{Name: f.Name, MIMEType: mt, Category: category}
	}

	f.MIMEType = mt
	f.Category = category

	s.mu.Lock()
	prev := s.current
	s.current = f
	s.mu.Unlock()

	if prev != nil && prev != f {
		release(prev)
	}
	return nil
}

// Clear discards the staged file
func (s *Stager) Clear() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	if prev != nil {
		release(prev)
	}
}

// ClearIf discards the staged file only when it is still f. It reports
// whether the slot was cleared.
func (s *Stager) ClearIf(f *File) bool {
	s.mu.Lock()
	if f == nil || s.current != f {
		s.mu.Unlock()
		return false
	}
	s.current = nil
	s.mu.Unlock()

	release(f)
	return true
}

// Current returns the staged file or nil
func (s *Stager) Current() *File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Preview renders the staged file as "name (12.3 KB)", or "" when empty
func (s *Stager) Preview() string {
	f := s.Current()
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", f.Name, f.SizeLabel())
}

func release(f *File) {
	if err := f.Close(); err != nil {
		log.Warn().Err(err).Str("file", f.Name).Msg("failed to release staged attachment")
	}
}

// StagePath opens the file at path and stages it. The file is closed again
// when validation fails.
func (s *Stager) StagePath(path string, category Category) error {
	f, err := OpenFile(path)
	if err != nil {
		return err
	}
	if err := s.Stage(f, category); err != nil {
		f.Close()
		return err
	}
	return nil
}

package speech

import (
	"context"
	"errors"
	"sync"
)

// Engine produces audio for a piece of plain text. Speak blocks until the
// utterance ends or ctx is cancelled.
type Engine interface {
	Speak(ctx context.Context, text string) error
}

// Synthesizer plays at most one utterance at a time. A new utterance starts
// only after the engine has returned from the one it replaced.
type Synthesizer struct {
	engine  Engine
	onError func(error)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	active uint64
	wg     sync.WaitGroup
}

// NewSynthesizer creates a synthesizer. onError receives engine failures and may be nil.
func NewSynthesizer(engine Engine, onError func(error)) *Synthesizer {
	return &Synthesizer{engine: engine, onError: onError}
}

// Speak cancels any utterance in progress and starts speaking text in the
// background. It reports whether anything is spoken.
func (s *Synthesizer) Speak(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	clean := Sanitize(text)
	if clean == "" {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	prev, done := s.done, make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.active++
	id := s.active

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}

		var err error
		if ctx.Err() == nil {
			err = s.engine.Speak(ctx, clean)
		}
		cancelled := ctx.Err() != nil

		s.mu.Lock()
		if s.active == id {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()

		if err != nil && !cancelled && !errors.Is(err, context.Canceled) && s.onError != nil {
			s.onError(err)
		}
	}()
	return true
}

// Stop cancels the current utterance
func (s *Synthesizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Speaking reports whether an utterance is in progress
func (s *Synthesizer) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Wait blocks until every started utterance has finished
func (s *Synthesizer) Wait() {
	s.wg.Wait()
}

func (s *Synthesizer) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

package speech

import (
	"fmt"
	"strings"
	"sync"
)

// Recognition error codes reported by recognizers
const (
	CodeNoSpeech     = "no-speech"
	CodeAudioCapture = "audio-capture"
	CodeNotAllowed   = "not-allowed"
)

// RecognitionError is a failed dictation
type RecognitionError struct {
	Code    string
	Message string
}

func (e *RecognitionError) Error() string {
	return e.Message
}

func newRecognitionError(code string) *RecognitionError {
	var msg string
	switch code {
	case CodeNoSpeech:
		msg = "No speech was detected. Please try again."
	case CodeAudioCapture:
		msg = "No microphone was found or it is not working."
	case CodeNotAllowed:
		msg = "Microphone access was denied."
	default:
		msg = fmt.Sprintf("Speech recognition error: %s", code)
	}
	return &RecognitionError{Code: code, Message: msg}
}

// Result is one recognized piece of speech
type Result struct {
	Transcript string
	Final      bool
}

// Dictation accumulates recognized text on top of what was already typed
type Dictation struct {
	mu          sync.Mutex
	recording   bool
	accumulated string
}

// Start begins recording, seeding the transcript with the current input line
func (d *Dictation) Start(currentInput string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recording = true
	d.accumulated = strings.TrimSpace(currentInput)
}

// Recording reports whether a dictation is in progress
func (d *Dictation) Recording() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recording
}

// Result folds results[index:] into the transcript. Final pieces are kept;
// interim ones are only shown. It returns the text to display.
func (d *Dictation) Result(index int, results []Result) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 {
		index = 0
	}
	var interim strings.Builder
	for _, r := range results[min(index, len(results)):] {
		if r.Final {
			d.accumulated = joinPiece(d.accumulated, r.Transcript)
			continue
		}
		interim.WriteString(r.Transcript)
	}
	return joinPiece(d.accumulated, interim.String())
}

// End stops recording and returns the accumulated text without interim results
func (d *Dictation) End() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recording = false
	return d.accumulated
}

// Fail stops recording and describes the failure
func (d *Dictation) Fail(code string) *RecognitionError {
	d.mu.Lock()
	d.recording = false
	d.mu.Unlock()
	return newRecognitionError(code)
}

func joinPiece(acc, piece string) string {
	piece = strings.TrimSpace(piece)
	switch {
	case piece == "":
		return acc
	case acc == "":
		return piece
	default:
		return acc + " " + piece
	}
}

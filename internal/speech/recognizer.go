package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

type recognizerEvent struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
	Error string `json:"error"`
}

// CommandRecognizer runs an external recognizer that prints one JSON event
// per line: {"text":"...","final":true} or {"error":"no-speech"}.
type CommandRecognizer struct {
	Command string
	Args    []string
}

// NewCommandRecognizer splits a configured command line into program and arguments
func NewCommandRecognizer(commandLine string) *CommandRecognizer {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	return &CommandRecognizer{Command: fields[0], Args: fields[1:]}
}

// Listen records one dictation into d, calling onUpdate with the text to show
// after every event. It returns the accumulated text. Cancelling ctx stops
// the recognizer and keeps the final text heard so far.
func (r *CommandRecognizer) Listen(ctx context.Context, d *Dictation, onUpdate func(string)) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Command, r.Args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to open recognizer output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", d.Fail(CodeAudioCapture)
	}

	text, readErr := ReadEvents(stdout, d, onUpdate)
	if readErr != nil {
		// the recognizer may still be running after an error event
		cancel()
	}
	waitErr := cmd.Wait()

	if readErr != nil {
		return "", readErr
	}
	if waitErr != nil && ctx.Err() == nil {
		log.Warn().Err(waitErr).Msg("recognizer exited with an error")
	}
	return text, nil
}

// ReadEvents feeds recognizer events from r into d until EOF or an error event
func ReadEvents(r io.Reader, d *Dictation, onUpdate func(string)) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var ev recognizerEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			log.Debug().Str("line", line).Msg("skipping malformed recognizer event")
			continue
		}
		if ev.Error != "" {
			return "", d.Fail(ev.Error)
		}

		display := d.Result(0, []Result{{Transcript: ev.Text, Final: ev.Final}})
		if onUpdate != nil {
			onUpdate(display)
		}
	}
	if err := scanner.Err(); err != nil {
		d.End()
		return "", fmt.Errorf("failed to read recognizer output: %w", err)
	}
	return d.End(), nil
}

package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Rrens/shaman-chat/internal/config"
)

// CommandEngine speaks through an external TTS binary such as espeak-ng
type CommandEngine struct {
	Command string
	Voice   string
	Rate    int
	Lang    string
}

// NewCommandEngine builds an engine from client settings
func NewCommandEngine(cfg config.SpeechConfig) *CommandEngine {
	cmd := cfg.Command
	if cmd == "" {
		cmd = "espeak-ng"
	}
	return &CommandEngine{Command: cmd, Voice: cfg.Voice, Rate: cfg.Rate, Lang: cfg.Lang}
}

// Args returns the command line used to speak text read from stdin
func (e *CommandEngine) Args() []string {
	var args []string
	if e.Voice != "" {
		args = append(args, "-v", e.Voice)
	}
	if e.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(e.Rate))
	}
	return append(args, "--stdin")
}

// Speak runs the TTS command until it exits or ctx is cancelled
func (e *CommandEngine) Speak(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, e.Command, e.Args()...)
	cmd.Stdin = strings.NewReader(text)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s failed: %w: %s", e.Command, err, msg)
		}
		return fmt.Errorf("%s failed: %w", e.Command, err)
	}
	return nil
}

// Voices lists the voices the engine offers for its language
func (e *CommandEngine) Voices(ctx context.Context) ([]Voice, error) {
	arg := "--voices"
	if lang := primaryLang(e.Lang); lang != "" {
		arg += "=" + lang
	}

	out, err := exec.CommandContext(ctx, e.Command, arg).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	return ParseVoices(string(out)), nil
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/shaman-chat/internal/attachment"
	"github.com/Rrens/shaman-chat/internal/chat"
	"github.com/Rrens/shaman-chat/internal/speech"
)

const chatHelp = `Commands:
  /new                 start a new dialogue
  /sessions            list dialogues
  /open <n>            open dialogue number n from /sessions
  /attach <path> [image|document]
                       attach a file to the next message
  /detach              drop the attached file
  /dictate             dictate a message (empty line sends it)
  /stop                stop reading the reply aloud
  /help                show this help
  /quit                exit`

func runChat(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	out := os.Stdout
	view := newTerminalView(out, cfg.Client.RenderMarkdown)

	var speaker chat.Speaker
	synth := newSynthesizer(ctx, view)
	if synth != nil {
		defer synth.Stop()
		speaker = synth
	}

	controller := chat.NewController(client, view, attachment.NewStager(), speaker)
	defer controller.Stager().Clear()

	fmt.Fprintln(out, titleStyle.Render("Sham'an AI")+dimStyle.Render("  /help for commands"))
	if err := controller.Bootstrap(ctx); err != nil {
		log.Error().Err(err).Msg("bootstrap failed")
	}

	r := &repl{
		ctx:        ctx,
		out:        out,
		controller: controller,
		synth:      synth,
		recognizer: speech.NewCommandRecognizer(cfg.Client.Speech.RecognizerCommand),
	}
	return r.run(os.Stdin)
}

// repl reads commands and messages line by line
type repl struct {
	ctx        context.Context
	out        io.Writer
	controller *chat.Controller
	synth      *speech.Synthesizer
	recognizer *speech.CommandRecognizer
	draft      string
	lines      chan string
}

func (r *repl) run(in io.Reader) error {
	r.lines = make(chan string)
	go func() {
		defer close(r.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			r.lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(r.out, userStyle.Render("> "))
		select {
		case <-r.ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		case line, ok := <-r.lines:
			if !ok {
				return nil
			}
			if quit := r.handle(strings.TrimSpace(line)); quit {
				return nil
			}
		}
	}
}

func (r *repl) handle(line string) bool {
	if !strings.HasPrefix(line, "/") {
		r.send(line)
		return false
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/new":
		hasFile := r.controller.Stager().Current() != nil
		if err := r.controller.StartNewChat(r.ctx, r.draft, hasFile); err != nil {
			r.fail(err)
		}
	case "/sessions":
		if _, err := r.controller.ListSessions(r.ctx); err != nil {
			return false
		}
		renderSessions(r.out, r.controller.Sessions(), r.controller.ActiveSession())
	case "/open":
		r.open(fields[1:])
	case "/attach":
		r.attach(fields[1:])
	case "/detach":
		if err := r.controller.ClearAttachment(); err != nil {
			r.fail(err)
			return false
		}
		fmt.Fprintln(r.out, dimStyle.Render("attachment removed"))
	case "/dictate":
		r.dictate()
	case "/stop":
		if r.synth != nil {
			r.synth.Stop()
		}
	default:
		fmt.Fprintln(r.out, errorStyle.Render("unknown command "+fields[0]))
	}
	return false
}

func (r *repl) send(line string) {
	text := line
	if text == "" {
		text = r.draft
	}
	_, err := r.controller.Send(r.ctx, text)
	switch {
	case errors.Is(err, chat.ErrEmptySubmission):
		return
	case err != nil:
		log.Error().Err(err).Msg("send failed")
		return
	}
	r.draft = ""
}

func (r *repl) open(args []string) {
	sessions := r.controller.Sessions()
	if len(args) != 1 {
		fmt.Fprintln(r.out, errorStyle.Render("usage: /open <n>"))
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(sessions) {
		fmt.Fprintln(r.out, errorStyle.Render("no such dialogue, run /sessions first"))
		return
	}
	if err := r.controller.SelectSession(r.ctx, sessions[n-1].UUID); err != nil {
		r.fail(err)
	}
}

func (r *repl) attach(args []string) {
	if len(args) == 0 || len(args) > 2 {
		fmt.Fprintln(r.out, errorStyle.Render("usage: /attach <path> [image|document]"))
		return
	}

	category, err := attachCategory(args)
	if err != nil {
		r.fail(err)
		return
	}
	if err := r.controller.Attach(args[0], category); err != nil {
		r.fail(err)
	}
}

// attachCategory takes an explicit category or guesses it from the file name
func attachCategory(args []string) (attachment.Category, error) {
	if len(args) == 2 {
		switch attachment.Category(args[1]) {
		case attachment.CategoryImage, attachment.CategoryDocument:
			return attachment.Category(args[1]), nil
		}
		return "", fmt.Errorf("unknown attachment category %q", args[1])
	}
	f, err := attachment.OpenFile(args[0])
	if err != nil {
		return "", err
	}
	defer f.Close()
	category, ok := attachment.Classify(f.MIMEType, f.Name)
	if !ok {
		return "", &attachment.UnsupportedTypeError{Name: f.Name, MIMEType: f.MIMEType}
	}
	return category, nil
}

func (r *repl) dictate() {
	if r.recognizer == nil {
		fmt.Fprintln(r.out, errorStyle.Render("speech recognition is not configured (client.speech.recognizer_command)"))
		return
	}

	d := &speech.Dictation{}
	d.Start(r.draft)
	fmt.Fprintln(r.out, dimStyle.Render("listening... press Enter to stop"))

	type heard struct {
		text string
		err  error
	}
	ctx, cancel := context.WithCancel(r.ctx)
	defer cancel()
	done := make(chan heard, 1)
	go func() {
		text, err := r.recognizer.Listen(ctx, d, func(shown string) {
			fmt.Fprintf(r.out, "\r%s", shown)
		})
		done <- heard{text, err}
	}()

	var res heard
	select {
	case res = <-done:
	case <-r.lines:
		cancel()
		res = <-done
	}
	text, err := res.text, res.err
	fmt.Fprintln(r.out)
	if err != nil {
		r.fail(err)
		return
	}
	r.draft = text
	if text != "" {
		fmt.Fprintln(r.out, dimStyle.Render("press Enter on an empty line to send: ")+text)
	}
}

func (r *repl) fail(err error) {
	fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
}

// newSynthesizer returns nil when speech output is disabled
func newSynthesizer(ctx context.Context, view *terminalView) *speech.Synthesizer {
	sc := cfg.Client.Speech
	if !sc.Enabled {
		return nil
	}

	engine := speech.NewCommandEngine(sc)
	if engine.Voice == "" && sc.Lang != "" {
		voices, err := engine.Voices(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("could not list voices")
		} else if v, ok := speech.SelectVoice(voices, sc.Lang); ok {
			engine.Voice = v.Name
			log.Debug().Str("voice", v.Name).Msg("selected voice")
		}
	}

	return speech.NewSynthesizer(engine, func(err error) {
		log.Warn().Err(err).Msg("speech synthesis failed")
		view.ShowNotice("Could not read the reply aloud.")
	})
}

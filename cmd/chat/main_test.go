package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/shaman-chat/internal/apiclient"
	"github.com/Rrens/shaman-chat/internal/attachment"
	"github.com/Rrens/shaman-chat/internal/chat"
	"github.com/Rrens/shaman-chat/internal/speech"
)

func TestHTMLToText(t *testing.T) {
	got := htmlToText("<h1>Terms</h1><p>Use &amp; enjoy</p>\n\n\n<ul><li>one</li><li>two</li></ul><script>x()</script>")
	assert.Equal(t, "Terms\n\nUse & enjoy\n\none\n\ntwo", got)
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")

	token, err := loadToken(path)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, saveToken(path, "abc.def"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = loadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)
}

func TestAttachCategory(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	exe := filepath.Join(dir, "notes.exe")
	require.NoError(t, os.WriteFile(txt, []byte("hi"), 0o600))
	require.NoError(t, os.WriteFile(exe, []byte("MZ"), 0o600))

	c, err := attachCategory([]string{txt})
	require.NoError(t, err)
	assert.Equal(t, attachment.CategoryDocument, c)

	c, err = attachCategory([]string{exe, "image"})
	require.NoError(t, err)
	assert.Equal(t, attachment.CategoryImage, c)

	_, err = attachCategory([]string{exe})
	var unsupported *attachment.UnsupportedTypeError
	assert.ErrorAs(t, err, &unsupported)

	_, err = attachCategory([]string{txt, "video"})
	assert.Error(t, err)
}

func TestTerminalView_PlainEntries(t *testing.T) {
	var buf bytes.Buffer
	v := newTerminalView(&buf, false)

	v.AppendEntry(chat.Entry{Role: chat.RoleUser, Content: "hello"})
	assert.Empty(t, buf.String(), "typed input is not echoed")

	v.AppendEntry(chat.Entry{Role: chat.RoleAssistant, Content: "hi there"})
	assert.Contains(t, buf.String(), "hi there")

	buf.Reset()
	v.AppendEntry(chat.Entry{Role: chat.RoleAssistant, Content: "[Error: offline]"})
	assert.Contains(t, buf.String(), "[Error: offline]")
}

func TestRenderSessions(t *testing.T) {
	var buf bytes.Buffer
	renderSessions(&buf, nil, "")
	assert.Contains(t, buf.String(), "No dialogues yet.")

	buf.Reset()
	renderSessions(&buf, []apiclient.Session{{UUID: "a", Title: "First"}, {UUID: "b", Title: "Second"}}, "b")
	assert.Contains(t, buf.String(), " 1. First")
	assert.Contains(t, buf.String(), " 2. Second")
}

// syncBuffer is written by the recognizer goroutine and read by the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestDictate_EnterStopsListening(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}
	out := &syncBuffer{}
	r := &repl{
		ctx: context.Background(),
		out: out,
		recognizer: &speech.CommandRecognizer{
			Command: "sh",
			Args:    []string{"-c", `echo '{"text":"hello","final":true}'; exec sleep 30`},
		},
		lines: make(chan string),
	}

	done := make(chan struct{})
	go func() {
		r.dictate()
		close(done)
	}()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "hello") }, 5*time.Second, 10*time.Millisecond)
	select {
	case r.lines <- "":
	case <-time.After(5 * time.Second):
		t.Fatal("dictation is not reading input")
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dictation did not stop")
	}
	assert.Equal(t, "hello", r.draft)
}

package chat

import "errors"

// State is the message exchange state
type State int

const (
	Idle State = iota
	Sending
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

var (
	// ErrEmptySubmission is returned by Send when there is neither text nor an attachment
	ErrEmptySubmission = errors.New("nothing to send")
	// ErrBusy is returned when another round trip is in progress
	ErrBusy = errors.New("a request is already in progress")
)

// Transcript roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Entry is one line of the transcript
type Entry struct {
	Role    string
	Content string
}

// Notices shown in place of an empty transcript
const (
	beginningNotice = "This is the beginning of your dialogue. Ask me anything."
	greetingSuffix  = ". How can I help?"
)

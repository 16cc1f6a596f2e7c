package apiclient

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// RequestError is a transport failure (Status 0) or a non-2xx response
type RequestError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s failed: %v", e.Method, e.Path, e.Err)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when a 2xx body lacks an expected field
type MalformedResponseError struct {
	Path  string
	Field string
	Err   error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response from %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("malformed response from %s: missing %q", e.Path, e.Field)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

// errorMessage picks the first present of error and message, else "Status N"
func errorMessage(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if msg := rawMessage(eb.Error); msg != "" {
			return msg
		}
		if eb.Message != "" {
			return eb.Message
		}
	}
	return fmt.Sprintf("Status %d", status)
}

func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var fields map[string]string
	if err := json.Unmarshal(raw, &fields); err == nil && len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + fields[k]
		}
		return strings.Join(parts, "; ")
	}

	return string(raw)
}

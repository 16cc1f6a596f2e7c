package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

type dialogueBody struct {
	Response      *string `json:"response"`
	AttachmentURL string  `json:"attachment_processed_url"`
}

// Dialogue sends a one-shot prompt that is not bound to a session
func (c *Client) Dialogue(ctx context.Context, prompt string) (string, error) {
	const path = "/api/dialogue"

	var body dialogueBody
	if err := c.postJSON(ctx, path, map[string]string{"prompt": prompt}, &body); err != nil {
		return "", err
	}
	if body.Response == nil {
		return "", &MalformedResponseError{Path: path, Field: "response"}
	}
	return *body.Response, nil
}

// DialogueWithFile sends a message to a session as multipart form data
func (c *Client) DialogueWithFile(ctx context.Context, req DialogueRequest) (*DialogueReply, error) {
	const path = "/api/dialogue_with_file"

	payload, contentType, err := encodeDialogue(req)
	if err != nil {
		return nil, err
	}

	var body dialogueBody
	if err := c.execute(ctx, http.MethodPost, path, payload, contentType, &body); err != nil {
		return nil, err
	}
	if body.Response == nil {
		return nil, &MalformedResponseError{Path: path, Field: "response"}
	}
	return &DialogueReply{Response: *body.Response, AttachmentURL: body.AttachmentURL}, nil
}

func encodeDialogue(req DialogueRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("prompt", req.Prompt); err != nil {
		return nil, "", fmt.Errorf("failed to write prompt: %w", err)
	}
	if err := mw.WriteField("chat_session_uuid", req.SessionUUID); err != nil {
		return nil, "", fmt.Errorf("failed to write session uuid: %w", err)
	}

	if req.File != nil {
		contentType := req.File.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(req.File.Name)))
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := io.Copy(part, req.File.Content); err != nil {
			return nil, "", fmt.Errorf("failed to write file part: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

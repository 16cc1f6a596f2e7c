package apiclient

import (
	"context"
	"net/url"
)

// Legal fetches the "terms" or "privacy" document
func (c *Client) Legal(ctx context.Context, docType string) (*LegalDocument, error) {
	var doc LegalDocument
	if err := c.getJSON(ctx, "/api/legal/"+url.PathEscape(docType), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

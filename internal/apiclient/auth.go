package apiclient

import "context"

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account
func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.postJSON(ctx, "/api/auth/register", credentials{Email: email, Password: password}, nil)
}

// Login exchanges credentials for an access token and keeps it for later calls
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	const path = "/api/auth/login"

	var token Token
	if err := c.postJSON(ctx, path, credentials{Email: email, Password: password}, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, &MalformedResponseError{Path: path, Field: "access_token"}
	}
	c.SetAuthToken(token.AccessToken)
	return &token, nil
}

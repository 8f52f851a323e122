package sdk

import "context"

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates and keeps the returned token on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, "/auth/login", credentials{username, password}, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

// Setup creates the first administrator and logs in as it.
func (c *Client) Setup(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.post(ctx, "/auth/setup", credentials{username, password}, &resp); err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp, nil
}

// Logout is best-effort: the local token is dropped even when the request
// fails, and the error is returned for logging only.
func (c *Client) Logout(ctx context.Context) error {
	err := c.post(ctx, "/auth/logout", nil, nil)
	c.token = ""
	return err
}

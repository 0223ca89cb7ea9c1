package backend

import (
	"context"
	"net/http"

	"github.com/sfms-dev/facility_bot/internal/apperr"
)

// Session is the identity the backend reports for the current cookie.
type Session struct {
	Username string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login opens a session. The csrftoken cookie is primed first.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	if err := c.PrimeCSRF(ctx); err != nil {
		return Session{}, err
	}
	var resp sessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login/", nil, loginRequest{Username: username, Password: password}, &resp); err != nil {
		if apperr.CodeOf(err) == apperr.CodeRejected || apperr.CodeOf(err) == apperr.CodeValidation {
			return Session{}, apperr.Wrap(apperr.CodeAuthRequired, "login rejected", err)
		}
		return Session{}, err
	}
	if resp.Username == "" {
		resp.Username = username
	}
	return Session{Username: resp.Username}, nil
}

// Me reports the current session. A missing session is AuthRequired.
func (c *Client) Me(ctx context.Context) (Session, error) {
	var resp sessionResponse
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me/", nil, nil, &resp); err != nil {
		if apperr.CodeOf(err) == apperr.CodeRejected {
			return Session{}, apperr.Wrap(apperr.CodeAuthRequired, "not logged in", err)
		}
		return Session{}, err
	}
	if resp.Username == "" {
		return Session{}, apperr.New(apperr.CodeAuthRequired, "not logged in")
	}
	return Session{Username: resp.Username}, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/logout/", nil, nil, nil)
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	catalogerrors "github.com/pearguacamole/VroomVault/internal/catalog/errors"
)

// Account is the signup payload.
type Account struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup registers a new account. It does not sign in.
func (c *Client) Signup(ctx context.Context, account Account) error {
	account.Name = strings.TrimSpace(account.Name)
	account.Email = strings.TrimSpace(account.Email)
	if err := fieldValidator().Struct(account); err != nil {
		return accountValidation(err)
	}
	body, err := json.Marshal(account)
	if err != nil {
		return err
	}
	req := request{method: http.MethodPost, path: "/signup", body: body, contentType: "application/json"}
	if err := c.do(ctx, req, nil); err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	return nil
}

// Login exchanges credentials for a token and acquires it into the session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	form := url.Values{"username": {strings.TrimSpace(email)}, "password": {password}}
	req := request{
		method:      http.MethodPost,
		path:        "/token",
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := c.do(ctx, req, &resp); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if resp.AccessToken == "" {
		return &catalogerrors.APIError{Status: http.StatusOK, Message: "login response carried no token", Kind: catalogerrors.ErrServerError}
	}
	if err := c.sessions.Acquire(ctx, resp.AccessToken); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	c.logger.InfoContext(ctx, "signed in")
	return nil
}

// Logout clears the session. The server keeps no session state, so nothing is sent.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// SignedIn reports whether a token is present.
func (c *Client) SignedIn(ctx context.Context) (bool, error) {
	_, ok, err := c.sessions.Read(ctx)
	return ok, err
}

func accountValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return catalogerrors.Validation(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		if fe.Tag() == "email" {
			msgs = append(msgs, name+" is not a valid email address")
			continue
		}
		msgs = append(msgs, name+" is required")
	}
	return catalogerrors.Validation(strings.Join(msgs, "; "))
}

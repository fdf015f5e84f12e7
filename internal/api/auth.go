package api

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"klicks-agent/internal/common/errors"
	"klicks-agent/internal/models"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Password  string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required),
		validation.Field(&r.LastName, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 0)),
	)
}

// Login exchanges credentials for a session. Validation failures
// short-circuit before any network call.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*models.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewPreconditionFailedError(err.Error())
	}
	var sess models.Session
	if err := c.do(ctx, nil, http.MethodPost, "/login", "login", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Register creates an account and returns the resulting session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewPreconditionFailedError(err.Error())
	}
	var sess models.Session
	if err := c.do(ctx, nil, http.MethodPost, "/register", "register", req, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// CurrentUser resolves the profile for a held token.
func (c *Client) CurrentUser(ctx context.Context, sess *models.Session) (*models.User, error) {
	if !sess.Authenticated() {
		return nil, errors.NewAuthenticationError("no token held")
	}
	var user models.User
	if err := c.do(ctx, sess, http.MethodGet, "/user", "current_user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

package api

import (
	"context"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"klicks-agent/internal/common/errors"
	"klicks-agent/internal/models"
)

type CreateKlickRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"is_public"`
}

func (r CreateKlickRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 120)),
	)
}

// Klicks lists the klicks the session's user belongs to.
func (c *Client) Klicks(ctx context.Context, sess *models.Session) ([]models.Klick, error) {
	var klicks []models.Klick
	if err := c.do(ctx, sess, http.MethodGet, "/klicks", "list_klicks", nil, &klicks); err != nil {
		return nil, err
	}
	return klicks, nil
}

// PublicKlicks lists klicks open to join requests.
func (c *Client) PublicKlicks(ctx context.Context, sess *models.Session) ([]models.Klick, error) {
	var klicks []models.Klick
	if err := c.do(ctx, sess, http.MethodGet, "/klicks/public", "public_klicks", nil, &klicks); err != nil {
		return nil, err
	}
	return klicks, nil
}

// Klick fetches one klick by id.
func (c *Client) Klick(ctx context.Context, sess *models.Session, klickID int) (*models.Klick, error) {
	var klick models.Klick
	path := fmt.Sprintf("/klicks/%d", klickID)
	if err := c.do(ctx, sess, http.MethodGet, path, "get_klick", nil, &klick); err != nil {
		return nil, err
	}
	return &klick, nil
}

// CreateKlick creates a new savings group.
func (c *Client) CreateKlick(ctx context.Context, sess *models.Session, req CreateKlickRequest) (*models.Klick, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewPreconditionFailedError(err.Error())
	}
	var klick models.Klick
	if err := c.do(ctx, sess, http.MethodPost, "/klicks", "create_klick", req, &klick); err != nil {
		return nil, err
	}
	return &klick, nil
}

// JoinRequest asks to join a klick; the membership starts out pending.
func (c *Client) JoinRequest(ctx context.Context, sess *models.Session, klickID int) error {
	path := fmt.Sprintf("/klicks/%d/join-request", klickID)
	return c.do(ctx, sess, http.MethodPost, path, "join_request", nil, nil)
}

package api

import (
	"context"
	"fmt"
	"net/http"

	"klicks-agent/internal/models"
)

// Members lists every member of a klick, approved and pending alike.
func (c *Client) Members(ctx context.Context, sess *models.Session, klickID int) ([]models.Member, error) {
	var members []models.Member
	path := fmt.Sprintf("/klicks/%d/members", klickID)
	if err := c.do(ctx, sess, http.MethodGet, path, "list_members", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (c *Client) memberAction(ctx context.Context, sess *models.Session, klickID, memberID int, action, endpoint string) error {
	path := fmt.Sprintf("/klicks/%d/members/%d/%s", klickID, memberID, action)
	return c.do(ctx, sess, http.MethodPost, path, endpoint, nil, nil)
}

// ApproveMember moves a pending member to approved.
func (c *Client) ApproveMember(ctx context.Context, sess *models.Session, klickID, memberID int) error {
	return c.memberAction(ctx, sess, klickID, memberID, "approve", "approve_member")
}

// DeactivateMember removes a member from the active partition.
func (c *Client) DeactivateMember(ctx context.Context, sess *models.Session, klickID, memberID int) error {
	return c.memberAction(ctx, sess, klickID, memberID, "deactivate", "deactivate_member")
}

// PromoteMember grants admin. There is no demotion counterpart.
func (c *Client) PromoteMember(ctx context.Context, sess *models.Session, klickID, memberID int) error {
	return c.memberAction(ctx, sess, klickID, memberID, "admin", "promote_member")
}

// DeclineMember rejects a pending join request (pending -> declined).
func (c *Client) DeclineMember(ctx context.Context, sess *models.Session, klickID, memberID int) error {
	return c.memberAction(ctx, sess, klickID, memberID, "decline", "decline_member")
}

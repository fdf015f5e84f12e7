package api

import (
	"context"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"klicks-agent/internal/common/errors"
	"klicks-agent/internal/models"
)

type AccountRequest struct {
	BankName      string `json:"bank_name"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
}

func (r AccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BankName, validation.Required),
		validation.Field(&r.AccountName, validation.Required),
		validation.Field(&r.AccountNumber, validation.Required, validation.Length(6, 20)),
	)
}

// Accounts lists the session user's payout accounts.
func (c *Client) Accounts(ctx context.Context, sess *models.Session) ([]models.Account, error) {
	var accounts []models.Account
	if err := c.do(ctx, sess, http.MethodGet, "/accounts", "list_accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// CreateAccount registers a payout account.
func (c *Client) CreateAccount(ctx context.Context, sess *models.Session, req AccountRequest) (*models.Account, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewPreconditionFailedError(err.Error())
	}
	var account models.Account
	if err := c.do(ctx, sess, http.MethodPost, "/accounts", "create_account", req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAccount replaces a payout account's details.
func (c *Client) UpdateAccount(ctx context.Context, sess *models.Session, accountID int, req AccountRequest) (*models.Account, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewPreconditionFailedError(err.Error())
	}
	var account models.Account
	path := fmt.Sprintf("/accounts/%d", accountID)
	if err := c.do(ctx, sess, http.MethodPut, path, "update_account", req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// DeleteAccount removes a payout account.
func (c *Client) DeleteAccount(ctx context.Context, sess *models.Session, accountID int) error {
	path := fmt.Sprintf("/accounts/%d", accountID)
	return c.do(ctx, sess, http.MethodDelete, path, "delete_account", nil, nil)
}

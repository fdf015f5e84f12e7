package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/xeipuuv/gojsonschema"

	"klicks-agent/internal/common/errors"
	"klicks-agent/internal/models"
)

type CreateCycleRequest struct {
	CycleName             string               `json:"cycle_name"`
	ProductType           string               `json:"product_type"`
	PaymentFrequency      string               `json:"payment_frequency"`
	Currency              string               `json:"currency"`
	MinAmount             string               `json:"min_amount,omitempty"`
	SavingAmount          string               `json:"saving_amount"`
	TotalSlot             int                  `json:"total_slot"`
	PaymentType           string               `json:"payment_type"`
	DisbursementStructure string               `json:"disbursement_structure,omitempty"`
	Participants          []models.Participant `json:"participants"`
}

func (r CreateCycleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CycleName, validation.Required),
		validation.Field(&r.ProductType, validation.Required, validation.In(
			models.ProductThrift, models.ProductContribution, models.ProductInvestment,
		)),
		validation.Field(&r.TotalSlot, validation.Min(1)),
		validation.Field(&r.Participants, validation.Required, validation.Length(1, 0)),
	)
}

// participantsSchema guards the flattened payload shape the backend expects:
// positive user ids and slots, non-negative amounts.
const participantsSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["user_id", "amount", "slot"],
		"properties": {
			"user_id": {"type": "integer", "minimum": 1},
			"amount": {"type": "number", "minimum": 0},
			"slot": {"type": "integer", "minimum": 1}
		},
		"additionalProperties": false
	}
}`

func validateParticipants(participants []models.Participant) error {
	payload, err := json.Marshal(participants)
	if err != nil {
		return errors.NewPreconditionFailedError(err.Error())
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(participantsSchema),
		gojsonschema.NewBytesLoader(payload),
	)
	if err != nil {
		return errors.NewPreconditionFailedError(err.Error())
	}
	if !result.Valid() {
		detail := "invalid participants payload"
		if errs := result.Errors(); len(errs) > 0 {
			detail = errs[0].String()
		}
		return errors.NewPreconditionFailedError(detail)
	}
	return nil
}

// Cycles lists a klick's cycles.
func (c *Client) Cycles(ctx context.Context, sess *models.Session, klickID int) ([]models.Cycle, error) {
	var cycles []models.Cycle
	path := fmt.Sprintf("/klicks/%d/cycles", klickID)
	if err := c.do(ctx, sess, http.MethodGet, path, "list_cycles", nil, &cycles); err != nil {
		return nil, err
	}
	return cycles, nil
}

// CreateCycle submits a new cycle with its slot allocations. Both the
// struct-level preconditions and the participants schema are checked before
// any network call is made.
func (c *Client) CreateCycle(ctx context.Context, sess *models.Session, klickID int, req CreateCycleRequest) (*models.Cycle, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.NewPreconditionFailedError(err.Error())
	}
	if err := validateParticipants(req.Participants); err != nil {
		return nil, err
	}
	var cycle models.Cycle
	path := fmt.Sprintf("/klicks/%d/cycles", klickID)
	if err := c.do(ctx, sess, http.MethodPost, path, "create_cycle", req, &cycle); err != nil {
		return nil, err
	}
	return &cycle, nil
}

// Schedules lists a cycle's payment schedules.
func (c *Client) Schedules(ctx context.Context, sess *models.Session, cycleID int) ([]models.Schedule, error) {
	var schedules []models.Schedule
	path := fmt.Sprintf("/cycles/%d/schedules", cycleID)
	if err := c.do(ctx, sess, http.MethodGet, path, "list_schedules", nil, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// Participants lists a cycle's slot assignments.
func (c *Client) Participants(ctx context.Context, sess *models.Session, cycleID int) ([]models.Participant, error) {
	var participants []models.Participant
	path := fmt.Sprintf("/cycles/%d/participants", cycleID)
	if err := c.do(ctx, sess, http.MethodGet, path, "list_participants", nil, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

// RemoveParticipant drops one slot assignment from a cycle.
func (c *Client) RemoveParticipant(ctx context.Context, sess *models.Session, cycleID, participantID int) error {
	path := fmt.Sprintf("/cycles/%d/participants/%d", cycleID, participantID)
	return c.do(ctx, sess, http.MethodDelete, path, "remove_participant", nil, nil)
}

// UpdateAnnouncement replaces the cycle's announcement text.
func (c *Client) UpdateAnnouncement(ctx context.Context, sess *models.Session, cycleID int, announcement string) error {
	path := fmt.Sprintf("/cycles/%d/announcement", cycleID)
	body := map[string]string{"announcement": announcement}
	return c.do(ctx, sess, http.MethodPatch, path, "update_announcement", body, nil)
}

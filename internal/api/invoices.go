package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"klicks-agent/internal/models"
)

// ScheduleInvoices performs the composite schedule/invoice/recipient read
// for one schedule.
func (c *Client) ScheduleInvoices(ctx context.Context, sess *models.Session, cycleID, scheduleID int) (*models.ScheduleInvoiceData, error) {
	var data models.ScheduleInvoiceData
	path := fmt.Sprintf("/cycles/%d/schedules/%d/invoices", cycleID, scheduleID)
	if err := c.do(ctx, sess, http.MethodGet, path, "schedule_invoices", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// UploadEvidence attaches a proof-of-payment file to an invoice. The invoice
// status is unchanged by this call; only confirmation moves it to paid.
func (c *Client) UploadEvidence(ctx context.Context, sess *models.Session, invoiceID int, filename string, file io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file_evidence", filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	path := fmt.Sprintf("/invoices/%d/evidence", invoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.execute(req, sess, "upload_evidence", nil)
}

// ConfirmPayment marks an invoice paid. Only the entitled recipient may
// confirm; the backend enforces that.
func (c *Client) ConfirmPayment(ctx context.Context, sess *models.Session, invoiceID int) error {
	path := fmt.Sprintf("/invoices/%d/confirm", invoiceID)
	return c.do(ctx, sess, http.MethodPost, path, "confirm_payment", nil, nil)
}

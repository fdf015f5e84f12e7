// Package reconcile lazily loads per-schedule invoice data for a cycle and
// derives role-based views (payer vs recipient, pending actions) from it.
package reconcile

import (
	"context"
	"io"
	"sync"

	"klicks-agent/internal/common/logger"
	"klicks-agent/internal/common/metrics"
	"klicks-agent/internal/models"
)

// InvoiceAPI is the slice of the backend client this component needs.
type InvoiceAPI interface {
	ScheduleInvoices(ctx context.Context, sess *models.Session, cycleID, scheduleID int) (*models.ScheduleInvoiceData, error)
	UploadEvidence(ctx context.Context, sess *models.Session, invoiceID int, filename string, file io.Reader) error
	ConfirmPayment(ctx context.Context, sess *models.Session, invoiceID int) error
}

// Role is a user's relationship to one schedule.
type Role int

const (
	RoleNone Role = iota
	RolePayer
	RoleRecipient
	RoleBoth
)

func (r Role) String() string {
	switch r {
	case RolePayer:
		return "payer"
	case RoleRecipient:
		return "recipient"
	case RoleBoth:
		return "both"
	default:
		return "none"
	}
}

// inflight tracks one in-progress fetch so concurrent triggers for the same
// schedule share a single request.
type inflight struct {
	done chan struct{}
	data *models.ScheduleInvoiceData
	err  error
}

// Reconciler caches schedule invoice data per schedule id. Entries are only
// replaced by the explicit re-fetch after a mutating action.
type Reconciler struct {
	api     InvoiceAPI
	cycleID int
	logger  logger.Logger

	mu      sync.Mutex
	cache   map[int]*models.ScheduleInvoiceData
	pending map[int]*inflight
}

func New(api InvoiceAPI, cycleID int, log logger.Logger) *Reconciler {
	return &Reconciler{
		api:     api,
		cycleID: cycleID,
		logger:  log.WithFields(map[string]interface{}{"component": "reconciler", "cycleId": cycleID}),
		cache:   make(map[int]*models.ScheduleInvoiceData),
		pending: make(map[int]*inflight),
	}
}

// FetchInvoices loads the composite invoice data for a schedule at most
// once. Concurrent calls for the same schedule join the in-flight request
// instead of issuing a second one. Failed fetches are not cached, so the
// caller may retry.
func (r *Reconciler) FetchInvoices(ctx context.Context, sess *models.Session, scheduleID int) (*models.ScheduleInvoiceData, error) {
	r.mu.Lock()
	if data, ok := r.cache[scheduleID]; ok {
		r.mu.Unlock()
		metrics.InvoiceCacheHits.Inc()
		return data, nil
	}
	if f, ok := r.pending[scheduleID]; ok {
		r.mu.Unlock()
		select {
		case <-f.done:
			return f.data, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f := &inflight{done: make(chan struct{})}
	r.pending[scheduleID] = f
	r.mu.Unlock()

	metrics.InvoiceCacheMisses.Inc()
	data, err := r.api.ScheduleInvoices(ctx, sess, r.cycleID, scheduleID)

	r.mu.Lock()
	delete(r.pending, scheduleID)
	if err == nil {
		r.cache[scheduleID] = data
	}
	r.mu.Unlock()

	f.data, f.err = data, err
	close(f.done)
	return data, err
}

// refresh unconditionally replaces the cache entry for a schedule. Used
// after mutations: correctness over latency.
func (r *Reconciler) refresh(ctx context.Context, sess *models.Session, scheduleID int) error {
	data, err := r.api.ScheduleInvoices(ctx, sess, r.cycleID, scheduleID)
	if err != nil {
		// Prior cached view stays authoritative on failure.
		r.logger.WithError(err).Warn("invoice refresh failed", map[string]interface{}{
			"scheduleId": scheduleID,
		})
		return err
	}
	r.mu.Lock()
	r.cache[scheduleID] = data
	r.mu.Unlock()
	return nil
}

// Cached returns the cached entry for a schedule, if fetched.
func (r *Reconciler) Cached(scheduleID int) (*models.ScheduleInvoiceData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, ok := r.cache[scheduleID]
	return data, ok
}

// RoleOf derives the user's role on a schedule from cached data. Returns
// RoleNone, not an error, when the schedule has not been fetched yet.
func (r *Reconciler) RoleOf(scheduleID int, email string) Role {
	data, ok := r.Cached(scheduleID)
	if !ok {
		return RoleNone
	}
	payer := false
	for _, inv := range data.Invoices {
		if inv.User.Email == email {
			payer = true
			break
		}
	}
	recipient := false
	for _, rec := range data.Recipients {
		if rec.User.Email == email {
			recipient = true
			break
		}
	}
	switch {
	case payer && recipient:
		return RoleBoth
	case payer:
		return RolePayer
	case recipient:
		return RoleRecipient
	default:
		return RoleNone
	}
}

// PendingInvoicesFor lists the unpaid invoices addressed to one recipient.
// On a multi-recipient schedule a recipient only sees invoices addressed to
// them, never every unpaid invoice.
func (r *Reconciler) PendingInvoicesFor(scheduleID int, recipientEmail string) []models.Invoice {
	data, ok := r.Cached(scheduleID)
	if !ok {
		return nil
	}
	var pending []models.Invoice
	for _, inv := range data.Invoices {
		if inv.Status == models.InvoiceNotPaid && inv.Recipient.Email == recipientEmail {
			pending = append(pending, inv)
		}
	}
	return pending
}

// ConfirmPayment marks an invoice paid, then re-fetches the schedule's data
// to replace the cache entry.
func (r *Reconciler) ConfirmPayment(ctx context.Context, sess *models.Session, scheduleID, invoiceID int) error {
	if err := r.api.ConfirmPayment(ctx, sess, invoiceID); err != nil {
		return err
	}
	return r.refresh(ctx, sess, scheduleID)
}

// UploadEvidence attaches payment evidence to an invoice, then re-fetches
// the schedule's data. The invoice status does not change.
func (r *Reconciler) UploadEvidence(ctx context.Context, sess *models.Session, scheduleID, invoiceID int, filename string, file io.Reader) error {
	if err := r.api.UploadEvidence(ctx, sess, invoiceID, filename, file); err != nil {
		return err
	}
	return r.refresh(ctx, sess, scheduleID)
}

package reconcile

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klicks-agent/internal/common/logger"
	"klicks-agent/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createSession(email string) *models.Session {
	return &models.Session{Token: "test-token", User: &models.User{ID: 1, Email: email}}
}

func createInvoice(id int, status, payerEmail, recipientEmail string) models.Invoice {
	return models.Invoice{
		ID:        id,
		Status:    status,
		User:      models.User{Email: payerEmail},
		Recipient: models.User{Email: recipientEmail},
	}
}

func createRecipient(email string) models.Recipient {
	return models.Recipient{User: models.User{Email: email}}
}

// stubInvoiceAPI serves canned schedule data and records mutating calls.
type stubInvoiceAPI struct {
	mu        sync.Mutex
	data      map[int]*models.ScheduleInvoiceData
	fetchFn   func(scheduleID int) (*models.ScheduleInvoiceData, error)
	fetches   int32
	confirmed []int
	uploaded  []int
}

func (s *stubInvoiceAPI) ScheduleInvoices(ctx context.Context, sess *models.Session, cycleID, scheduleID int) (*models.ScheduleInvoiceData, error) {
	atomic.AddInt32(&s.fetches, 1)
	s.mu.Lock()
	fn := s.fetchFn
	data := s.data[scheduleID]
	s.mu.Unlock()
	if fn != nil {
		return fn(scheduleID)
	}
	return data, nil
}

func (s *stubInvoiceAPI) setData(scheduleID int, data *models.ScheduleInvoiceData) {
	s.mu.Lock()
	if s.data == nil {
		s.data = make(map[int]*models.ScheduleInvoiceData)
	}
	s.data[scheduleID] = data
	s.mu.Unlock()
}

func (s *stubInvoiceAPI) ConfirmPayment(ctx context.Context, sess *models.Session, invoiceID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmed = append(s.confirmed, invoiceID)
	for _, data := range s.data {
		for i := range data.Invoices {
			if data.Invoices[i].ID == invoiceID {
				data.Invoices[i].Status = models.InvoicePaid
			}
		}
	}
	return nil
}

func (s *stubInvoiceAPI) UploadEvidence(ctx context.Context, sess *models.Session, invoiceID int, filename string, file io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded = append(s.uploaded, invoiceID)
	for _, data := range s.data {
		for i := range data.Invoices {
			if data.Invoices[i].ID == invoiceID {
				data.Invoices[i].FileEvidence = filename
			}
		}
	}
	return nil
}

func createTestReconciler(t *testing.T, api InvoiceAPI) *Reconciler {
	return New(api, 1, logger.NewTestLogger(t))
}

// ==========================
// Fetch and cache
// ==========================

func TestFetchInvoices_CachesPerSchedule(t *testing.T) {
	api := &stubInvoiceAPI{}
	api.setData(10, &models.ScheduleInvoiceData{
		Schedule: models.Schedule{ID: 10},
		Invoices: []models.Invoice{createInvoice(1, models.InvoiceNotPaid, "p@x.com", "r@x.com")},
	})
	r := createTestReconciler(t, api)
	sess := createSession("p@x.com")

	first, err := r.FetchInvoices(context.Background(), sess, 10)
	require.NoError(t, err)
	second, err := r.FetchInvoices(context.Background(), sess, 10)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.fetches))
}

func TestFetchInvoices_ConcurrentCallsShareOneRequest(t *testing.T) {
	data := &models.ScheduleInvoiceData{Schedule: models.Schedule{ID: 10}}
	api := &stubInvoiceAPI{}
	started := make(chan struct{})
	release := make(chan struct{})
	api.fetchFn = func(scheduleID int) (*models.ScheduleInvoiceData, error) {
		close(started)
		<-release
		return data, nil
	}
	r := createTestReconciler(t, api)
	sess := createSession("p@x.com")

	var wg sync.WaitGroup
	results := make([]*models.ScheduleInvoiceData, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = r.FetchInvoices(context.Background(), sess, 10)
	}()
	<-started

	// Second trigger while the first request is still in flight.
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = r.FetchInvoices(context.Background(), sess, 10)
	}()

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&api.fetches))
	assert.Same(t, results[0], results[1])
}

func TestFetchInvoices_FailureIsNotCached(t *testing.T) {
	api := &stubInvoiceAPI{}
	data := &models.ScheduleInvoiceData{Schedule: models.Schedule{ID: 10}}
	failing := true
	api.fetchFn = func(scheduleID int) (*models.ScheduleInvoiceData, error) {
		if failing {
			return nil, context.DeadlineExceeded
		}
		return data, nil
	}
	r := createTestReconciler(t, api)
	sess := createSession("p@x.com")

	_, err := r.FetchInvoices(context.Background(), sess, 10)
	require.Error(t, err)
	_, cached := r.Cached(10)
	assert.False(t, cached)

	failing = false
	got, err := r.FetchInvoices(context.Background(), sess, 10)
	require.NoError(t, err)
	assert.Same(t, data, got)
}

// ==========================
// Role derivation
// ==========================

func TestRoleOf(t *testing.T) {
	data := &models.ScheduleInvoiceData{
		Schedule: models.Schedule{ID: 10},
		Invoices: []models.Invoice{
			createInvoice(1, models.InvoiceNotPaid, "payer@x.com", "rec@x.com"),
			createInvoice(2, models.InvoiceNotPaid, "both@x.com", "rec@x.com"),
		},
		Recipients: []models.Recipient{
			createRecipient("rec@x.com"),
			createRecipient("both@x.com"),
		},
	}

	api := &stubInvoiceAPI{}
	api.setData(10, data)
	r := createTestReconciler(t, api)
	sess := createSession("rec@x.com")

	// Unfetched schedule: None regardless of the user's actual role.
	assert.Equal(t, RoleNone, r.RoleOf(10, "rec@x.com"))

	_, err := r.FetchInvoices(context.Background(), sess, 10)
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		expected Role
	}{
		{name: "payer only", email: "payer@x.com", expected: RolePayer},
		{name: "recipient only", email: "rec@x.com", expected: RoleRecipient},
		{name: "payer and recipient", email: "both@x.com", expected: RoleBoth},
		{name: "uninvolved user", email: "other@x.com", expected: RoleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.RoleOf(10, tt.email))
		})
	}
}

func TestPendingInvoicesFor_FiltersByStatusAndRecipient(t *testing.T) {
	api := &stubInvoiceAPI{}
	api.setData(10, &models.ScheduleInvoiceData{
		Schedule: models.Schedule{ID: 10},
		Invoices: []models.Invoice{
			createInvoice(10, models.InvoiceNotPaid, "p1@x.com", "r@x.com"),
			createInvoice(11, models.InvoicePaid, "p2@x.com", "r@x.com"),
			createInvoice(12, models.InvoiceNotPaid, "p3@x.com", "other@x.com"),
		},
	})
	r := createTestReconciler(t, api)
	sess := createSession("r@x.com")

	// Nothing before the fetch.
	assert.Nil(t, r.PendingInvoicesFor(10, "r@x.com"))

	_, err := r.FetchInvoices(context.Background(), sess, 10)
	require.NoError(t, err)

	pending := r.PendingInvoicesFor(10, "r@x.com")
	require.Len(t, pending, 1)
	assert.Equal(t, 10, pending[0].ID)
}

// ==========================
// Mutations re-fetch
// ==========================

func TestConfirmPayment_ReplacesCacheEntry(t *testing.T) {
	api := &stubInvoiceAPI{}
	api.setData(10, &models.ScheduleInvoiceData{
		Schedule: models.Schedule{ID: 10},
		Invoices: []models.Invoice{createInvoice(5, models.InvoiceNotPaid, "p@x.com", "r@x.com")},
	})
	r := createTestReconciler(t, api)
	sess := createSession("r@x.com")

	_, err := r.FetchInvoices(context.Background(), sess, 10)
	require.NoError(t, err)
	require.Len(t, r.PendingInvoicesFor(10, "r@x.com"), 1)

	require.NoError(t, r.ConfirmPayment(context.Background(), sess, 10, 5))

	assert.Equal(t, []int{5}, api.confirmed)
	assert.Empty(t, r.PendingInvoicesFor(10, "r@x.com"))

	data, ok := r.Cached(10)
	require.True(t, ok)
	assert.Equal(t, models.InvoicePaid, data.Invoices[0].Status)
}

func TestUploadEvidence_AttachesWithoutStatusChange(t *testing.T) {
	api := &stubInvoiceAPI{}
	api.setData(10, &models.ScheduleInvoiceData{
		Schedule: models.Schedule{ID: 10},
		Invoices: []models.Invoice{createInvoice(5, models.InvoiceNotPaid, "p@x.com", "r@x.com")},
	})
	r := createTestReconciler(t, api)
	sess := createSession("p@x.com")

	_, err := r.FetchInvoices(context.Background(), sess, 10)
	require.NoError(t, err)

	err = r.UploadEvidence(context.Background(), sess, 10, 5, "receipt.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, []int{5}, api.uploaded)
	data, ok := r.Cached(10)
	require.True(t, ok)
	assert.Equal(t, "receipt.png", data.Invoices[0].FileEvidence)
	assert.Equal(t, models.InvoiceNotPaid, data.Invoices[0].Status)
}

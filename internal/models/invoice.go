package models

// Invoice status values. The only transition visible to this client is
// not_paid -> paid; evidence attaches without a status change.
const (
	InvoiceNotPaid = "not_paid"
	InvoicePaid    = "paid"
)

// Invoice is a single payer->recipient obligation for a schedule.
type Invoice struct {
	ID           int    `json:"id"`
	ScheduleID   int    `json:"schedule_id"`
	UserID       int    `json:"user_id"`
	AccountID    int    `json:"account_id"`
	Amount       string `json:"amount"`
	FileEvidence string `json:"file_evidence,omitempty"`
	Status       string `json:"status"`
	RecipientID  int    `json:"recipient_id"`
	ApprovedBy   int    `json:"approved_by,omitempty"`
	User         User   `json:"user"`
	Recipient    User   `json:"recipient"`
}

// Recipient is the party entitled to collect for a schedule slot.
type Recipient struct {
	CycleUser Member  `json:"cycle_user"`
	User      User    `json:"user"`
	Account   Account `json:"account"`
}

// ScheduleInvoiceData is the composite read for one schedule: the schedule
// itself, every invoice raised against it, and the entitled recipients.
type ScheduleInvoiceData struct {
	Schedule   Schedule    `json:"schedule"`
	Invoices   []Invoice   `json:"invoices"`
	Recipients []Recipient `json:"recipients"`
}

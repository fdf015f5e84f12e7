package models

// Member status values as reported by the backend.
const (
	MemberStatusPending  = "pending"
	MemberStatusApproved = "approved"
	MemberStatusDeclined = "declined"
)

// Member ties a user to a klick. A member belongs to exactly one klick;
// is_admin is monotonic (there is no demotion operation).
type Member struct {
	ID          int    `json:"id"`
	UserID      int    `json:"user_id"`
	KlickID     int    `json:"klick_id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	ApprovedBy  int    `json:"approved_by,omitempty"`
	Deactivated bool   `json:"deactivated"`
	IsAdmin     bool   `json:"is_admin"`
	User        User   `json:"user"`
}

// IsActive reports whether the member counts toward the active partition.
func (m *Member) IsActive() bool {
	return m.Status == MemberStatusApproved && !m.Deactivated
}

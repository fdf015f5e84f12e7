package models

// Cycle product types.
const (
	ProductThrift       = "thrift"
	ProductContribution = "contribution"
	ProductInvestment   = "investment"
)

// Cycle is one run of a klick's savings product. total_slot drives the
// shape of the allocation planner's working set.
type Cycle struct {
	ID                    int    `json:"id"`
	KlickID               int    `json:"klick_id"`
	CycleName             string `json:"cycle_name"`
	ProductType           string `json:"product_type"`
	PaymentFrequency      string `json:"payment_frequency"`
	Currency              string `json:"currency"`
	MinAmount             string `json:"min_amount,omitempty"`
	SavingAmount          string `json:"saving_amount"`
	TotalSlot             int    `json:"total_slot"`
	PaymentType           string `json:"payment_type"`
	Status                string `json:"status"`
	Announcement          string `json:"announcement,omitempty"`
	DisbursementStructure string `json:"disbursement_structure,omitempty"`
}

// Participant is one flattened slot assignment in a cycle-creation payload.
type Participant struct {
	UserID int     `json:"user_id"`
	Amount float64 `json:"amount"`
	Slot   int     `json:"slot"`
}

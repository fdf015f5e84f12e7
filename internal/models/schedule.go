package models

// Schedule is one payment period of a cycle. The backend keeps at most one
// schedule active per cycle; this client consumes that flag, it does not
// enforce it.
type Schedule struct {
	ID             int    `json:"id"`
	KlickID        int    `json:"klick_id"`
	CycleID        int    `json:"cycle_id"`
	Slot           int    `json:"slot"`
	Completed      bool   `json:"completed"`
	ExpectedAmount string `json:"expected_amount"`
	PeriodStart    string `json:"period_start"`
	PeriodEnd      string `json:"period_end"`
	IsActive       bool   `json:"is_active"`
}

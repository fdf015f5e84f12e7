package models

// Klick is a savings group.
type Klick struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	IsPublic    bool   `json:"is_public"`
	CreatedBy   int    `json:"created_by"`
}

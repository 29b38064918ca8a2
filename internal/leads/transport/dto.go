package transport

import "time"

// Request DTOs
type CreateLeadRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Phone string `json:"phone" validate:"required,max=40"`
}

// LeadPatch enumerates the fields a lead update may change. Absent fields
// stay untouched; any other JSON keys are ignored.
type LeadPatch struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

type ListLeadsRequest struct {
	Search string `form:"search" validate:"max=200"`
	Page   string `form:"page"`
	Limit  string `form:"limit"`
}

// Response DTOs
type LeadResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Documents []string  `json:"documents"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type DocumentURLResponse struct {
	DownloadURL string `json:"downloadUrl"`
}

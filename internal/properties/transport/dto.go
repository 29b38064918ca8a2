package transport

import "time"

// Property types accepted by the API.
const (
	TypeResidential = "Residential"
	TypeCommercial  = "Commercial"
	TypeLand        = "Land"
)

// Request DTOs
type CreatePropertyRequest struct {
	Type         string   `json:"type" validate:"required,oneof=Residential Commercial Land"`
	Size         string   `json:"size" validate:"required,max=100"`
	Location     string   `json:"location" validate:"required,max=300"`
	Budget       *float64 `json:"budget" validate:"required,gte=0"`
	Availability *bool    `json:"availability,omitempty"`
}

// PropertyPatch enumerates the fields a property update may change.
type PropertyPatch struct {
	Type         *string  `json:"type,omitempty" validate:"omitempty,oneof=Residential Commercial Land"`
	Size         *string  `json:"size,omitempty" validate:"omitempty,max=100"`
	Location     *string  `json:"location,omitempty" validate:"omitempty,max=300"`
	Budget       *float64 `json:"budget,omitempty" validate:"omitempty,gte=0"`
	Availability *bool    `json:"availability,omitempty"`
}

type ListPropertiesRequest struct {
	Search string `form:"search" validate:"max=300"`
	Page   string `form:"page"`
	Limit  string `form:"limit"`
}

// Response DTOs
type PropertyResponse struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Size         string    `json:"size"`
	Location     string    `json:"location"`
	Budget       float64   `json:"budget"`
	Availability bool      `json:"availability"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type PropertyListResponse struct {
	Items []PropertyResponse `json:"items"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

package crmclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Property types accepted by the API.
const (
	PropertyResidential = "Residential"
	PropertyCommercial  = "Commercial"
	PropertyLand        = "Land"
)

type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Documents []string  `json:"documents"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type LeadInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// LeadPatch changes only the non-nil fields.
type LeadPatch struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type Property struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Size         string    `json:"size"`
	Location     string    `json:"location"`
	Budget       float64   `json:"budget"`
	Availability bool      `json:"availability"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PropertyInput creates a listing. A nil Availability lets the server default it to true.
type PropertyInput struct {
	Type         string  `json:"type"`
	Size         string  `json:"size"`
	Location     string  `json:"location"`
	Budget       float64 `json:"budget"`
	Availability *bool   `json:"availability,omitempty"`
}

// PropertyPatch changes only the non-nil fields.
type PropertyPatch struct {
	Type         *string  `json:"type,omitempty"`
	Size         *string  `json:"size,omitempty"`
	Location     *string  `json:"location,omitempty"`
	Budget       *float64 `json:"budget,omitempty"`
	Availability *bool    `json:"availability,omitempty"`
}

// ListOptions selects one page of a list. Zero Page and Limit use the server defaults.
type ListOptions struct {
	Search string
	Page   int
	Limit  int
}

// Document is a file to attach to a lead.
type Document struct {
	FileName string
	Reader   io.Reader
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int             `json:"-"`
	Message    string          `json:"error"`
	Details    json.RawMessage `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("crm api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("crm api: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsBadRequest reports whether err is an API 400 (validation or conflict).
func IsBadRequest(err error) bool {
	return hasStatus(err, http.StatusBadRequest)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

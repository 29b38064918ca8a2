package repository

import (
	"context"
	"errors"
	"time"

	"estate_crm_backend/internal/shared/query"
)

var (
	// ErrNotFound is returned when no lead matches the id.
	ErrNotFound = errors.New("lead not found")
	// ErrDuplicatePhone is returned when another lead already uses the phone.
	ErrDuplicatePhone = errors.New("phone already exists")
)

// Lead is a prospective client record.
type Lead struct {
	ID        string
	Name      string
	Phone     string
	Documents []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateLeadParams carries the validated fields of a new lead. Phone is
// stored as entered; PhoneKey is its normalized form and must be unique.
type CreateLeadParams struct {
	Name     string
	Phone    string
	PhoneKey string
}

// UpdateLeadParams lists the fields that may change; nil means unchanged.
// Phone and PhoneKey are set together.
type UpdateLeadParams struct {
	Name     *string
	Phone    *string
	PhoneKey *string
}

// ListParams filters and pages the lead list.
type ListParams struct {
	Search string
	Page   query.Page
}

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id string) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
}

// LeadWriter provides write operations for lead management.
type LeadWriter interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	Update(ctx context.Context, id string, params UpdateLeadParams) (Lead, error)
	Delete(ctx context.Context, id string) error
}

// DocumentStore appends document references to a lead.
type DocumentStore interface {
	AppendDocument(ctx context.Context, id string, url string) (Lead, error)
}

// LeadsRepository defines the complete interface for leads data operations.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	DocumentStore
	Ping(ctx context.Context) error
}

func nonNilDocuments(docs []string) []string {
	if docs == nil {
		return []string{}
	}
	return docs
}

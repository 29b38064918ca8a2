package repository

import (
	"context"
	"errors"
	"time"

	"estate_crm_backend/internal/shared/query"
)

// ErrNotFound is returned when no property matches the id.
var ErrNotFound = errors.New("property not found")

// Property is a real-estate listing.
type Property struct {
	ID           string
	Type         string
	Size         string
	Location     string
	Budget       float64
	Availability bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreatePropertyParams carries the validated fields of a new listing.
type CreatePropertyParams struct {
	Type         string
	Size         string
	Location     string
	Budget       float64
	Availability bool
}

// UpdatePropertyParams lists the fields that may change; nil means unchanged.
type UpdatePropertyParams struct {
	Type         *string
	Size         *string
	Location     *string
	Budget       *float64
	Availability *bool
}

// ListParams filters listings by location and pages the result.
type ListParams struct {
	Location string
	Page     query.Page
}

// PropertyReader provides read-only access to listings.
type PropertyReader interface {
	GetByID(ctx context.Context, id string) (Property, error)
	List(ctx context.Context, params ListParams) ([]Property, int, error)
}

// PropertyWriter provides write operations for listings.
type PropertyWriter interface {
	Create(ctx context.Context, params CreatePropertyParams) (Property, error)
	Update(ctx context.Context, id string, params UpdatePropertyParams) (Property, error)
	Delete(ctx context.Context, id string) error
}

// PropertiesRepository defines the complete interface for property data operations.
type PropertiesRepository interface {
	PropertyReader
	PropertyWriter
	Ping(ctx context.Context) error
}

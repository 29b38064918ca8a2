package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"estate_crm_backend/internal/properties/repository"
	"estate_crm_backend/internal/properties/transport"
	"estate_crm_backend/internal/shared/query"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/metrics"
	"estate_crm_backend/platform/sanitize"
)

const (
	msgPropertyNotFound = "property not found"
	msgInvalidType      = "type must be one of Residential, Commercial, Land"
	msgSizeRequired     = "size is required"
	msgLocationRequired = "location is required"
	msgBudgetRequired   = "budget is required"
	msgBudgetInvalid    = "budget must be a non-negative number"
	metricsEntity       = "property"
)

var validTypes = map[string]bool{
	transport.TypeResidential: true,
	transport.TypeCommercial:  true,
	transport.TypeLand:        true,
}

type Service struct {
	repo    repository.PropertiesRepository
	metrics *metrics.Metrics
	log     *logger.Logger
}

func New(repo repository.PropertiesRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *Service) Create(ctx context.Context, req transport.CreatePropertyRequest) (property transport.PropertyResponse, err error) {
	defer func() { s.metrics.RecordOperation(metricsEntity, "create", err) }()

	params := repository.CreatePropertyParams{
		Type:         strings.TrimSpace(req.Type),
		Size:         sanitize.Text(req.Size),
		Location:     sanitize.Text(req.Location),
		Availability: true,
	}
	if !validTypes[params.Type] {
		return transport.PropertyResponse{}, apperr.Validation(msgInvalidType)
	}
	if params.Size == "" {
		return transport.PropertyResponse{}, apperr.Validation(msgSizeRequired)
	}
	if params.Location == "" {
		return transport.PropertyResponse{}, apperr.Validation(msgLocationRequired)
	}
	if req.Budget == nil {
		return transport.PropertyResponse{}, apperr.Validation(msgBudgetRequired)
	}
	if !validBudget(*req.Budget) {
		return transport.PropertyResponse{}, apperr.Validation(msgBudgetInvalid)
	}
	params.Budget = *req.Budget
	if req.Availability != nil {
		params.Availability = *req.Availability
	}

	created, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.PropertyResponse{}, err
	}

	s.log.WithContext(ctx).Info("property created", "propertyId", created.ID, "type", created.Type)
	return toPropertyResponse(created), nil
}

// List returns properties whose location contains the term, ignoring case.
func (s *Service) List(ctx context.Context, location string, page query.Page) (transport.PropertyListResponse, error) {
	properties, total, err := s.repo.List(ctx, repository.ListParams{
		Location: strings.TrimSpace(location),
		Page:     page,
	})
	s.metrics.RecordOperation(metricsEntity, "list", err)
	if err != nil {
		return transport.PropertyListResponse{}, err
	}

	items := make([]transport.PropertyResponse, len(properties))
	for i, property := range properties {
		items[i] = toPropertyResponse(property)
	}

	return transport.PropertyListResponse{
		Items: items,
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (transport.PropertyResponse, error) {
	property, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.PropertyResponse{}, mapRepoError(err)
	}
	return toPropertyResponse(property), nil
}

func (s *Service) Update(ctx context.Context, id string, patch transport.PropertyPatch) (property transport.PropertyResponse, err error) {
	defer func() { s.metrics.RecordOperation(metricsEntity, "update", err) }()

	params, err := buildUpdateParams(patch)
	if err != nil {
		return transport.PropertyResponse{}, err
	}

	updated, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return transport.PropertyResponse{}, mapRepoError(err)
	}
	return toPropertyResponse(updated), nil
}

func buildUpdateParams(patch transport.PropertyPatch) (repository.UpdatePropertyParams, error) {
	params := repository.UpdatePropertyParams{
		Budget:       patch.Budget,
		Availability: patch.Availability,
	}
	if patch.Type != nil {
		propertyType := strings.TrimSpace(*patch.Type)
		if !validTypes[propertyType] {
			return params, apperr.Validation(msgInvalidType)
		}
		params.Type = &propertyType
	}
	if patch.Size != nil {
		size := sanitize.Text(*patch.Size)
		if size == "" {
			return params, apperr.Validation(msgSizeRequired)
		}
		params.Size = &size
	}
	if patch.Location != nil {
		location := sanitize.Text(*patch.Location)
		if location == "" {
			return params, apperr.Validation(msgLocationRequired)
		}
		params.Location = &location
	}
	if patch.Budget != nil && !validBudget(*patch.Budget) {
		return params, apperr.Validation(msgBudgetInvalid)
	}
	return params, nil
}

func (s *Service) Delete(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.RecordOperation(metricsEntity, "delete", err) }()

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}

	s.log.WithContext(ctx).Info("property deleted", "propertyId", id)
	return nil
}

func validBudget(budget float64) bool {
	return budget >= 0 && !math.IsInf(budget, 0) && !math.IsNaN(budget)
}

func mapRepoError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgPropertyNotFound)
	}
	return err
}

func toPropertyResponse(property repository.Property) transport.PropertyResponse {
	return transport.PropertyResponse{
		ID:           property.ID,
		Type:         property.Type,
		Size:         property.Size,
		Location:     property.Location,
		Budget:       property.Budget,
		Availability: property.Availability,
		CreatedAt:    property.CreatedAt,
		UpdatedAt:    property.UpdatedAt,
	}
}
